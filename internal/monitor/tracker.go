package monitor

import (
	"fmt"
	"math"
	"slices"

	"github.com/obsidianstack/framewatch/pkg/types"
)

const (
	// syncToleranceUS is how far a frame gap may stray from the expected
	// interval while the pipeline still counts as synced.
	syncToleranceUS = 1000

	// fpsWindowUS bounds the fps estimate to roughly the last minute.
	fpsWindowUS = 60 * 1_000_000
)

// transientWarnings are reported once and then dropped from the active set.
// Every other kind stays active until the producer sends "ok".
var transientWarnings = map[types.WarningKind]bool{
	types.WarningEncodeError: true,
}

// pipelineState is the tracker's view of one pipeline. It is only touched
// with Engine.mu held.
type pipelineState struct {
	info types.PipelineInfo

	startUS       uint64 // first frame, or last rollback
	windowStartUS uint64 // start of the fps estimation window
	latestFrameUS uint64
	seq           uint64
	windowFrames  uint32
	online        bool
	synced        bool
	delayUS       uint64

	warnings map[types.WarningKind]types.WarningEvent
}

func newPipelineState(info types.PipelineInfo) *pipelineState {
	return &pipelineState{
		info:     info,
		warnings: make(map[types.WarningKind]types.WarningEvent),
	}
}

// observeFrame folds one frame signal into the state and returns the FRAME
// report for it.
func (st *pipelineState) observeFrame(sig types.FrameSignal, now uint64) types.Report {
	if st.seq == 0 {
		st.startUS = now
		st.windowStartUS = now
		st.latestFrameUS = now
	}

	gap := int64(now) - int64(st.latestFrameUS)
	st.synced = absInt64(gap-int64(st.info.FrameInterval())) <= syncToleranceUS

	st.delayUS = 0
	if sig.ReceiveTS >= sig.SensorTS {
		st.delayUS = sig.ReceiveTS - sig.SensorTS
	}

	st.seq++
	st.windowFrames++
	st.online = true
	st.latestFrameUS = now

	return types.Report{
		Kind:      types.ReportFrame,
		Pipeline:  st.info.Name,
		Seq:       st.seq,
		SensorTS:  sig.SensorTS,
		PublishTS: now,
	}
}

// applyWarning records a normalized warning. OK resets the whole set.
func (st *pipelineState) applyWarning(ev types.WarningEvent) {
	if ev.Kind == types.WarningOK {
		clear(st.warnings)
		return
	}
	st.warnings[ev.Kind] = ev
}

// evaluate runs the heartbeat-cadence checks and appends the resulting
// reports to batch.
func (st *pipelineState) evaluate(batch []types.Report, now uint64) []types.Report {
	if r, lost := st.checkLiveness(now); lost {
		batch = append(batch, r)
	}

	batch = append(batch, st.heartbeat(now))

	if now > st.windowStartUS && now-st.windowStartUS > fpsWindowUS {
		st.windowFrames = 0
		st.windowStartUS = now
	}

	reports, clearAll := pendingWarnings(st.info, st.warnings, now)
	batch = append(batch, reports...)
	st.settleWarnings(clearAll)
	return batch
}

// checkLiveness marks the pipeline offline when two frame intervals passed
// without a frame. latestFrameUS is advanced so the warning fires once per
// missed double interval rather than on every tick.
func (st *pipelineState) checkLiveness(now uint64) (types.Report, bool) {
	if now < st.latestFrameUS || now-st.latestFrameUS < 2*st.info.FrameInterval() {
		return types.Report{}, false
	}
	st.online = false
	st.latestFrameUS = now
	return st.engineWarning(types.WarningFrameLoss, now), true
}

func (st *pipelineState) heartbeat(now uint64) types.Report {
	var fps float64
	if st.seq > 0 && now > st.windowStartUS {
		fps = float64(st.windowFrames) / (float64(now-st.windowStartUS) / 1e6)
	}

	var logical uint64
	if st.startUS > 0 && now > st.startUS {
		logical = uint64(math.Round(float64(st.info.FPS) * float64(now-st.startUS) / 1e6))
	}

	return types.Report{
		Kind:      types.ReportHeartBeat,
		Pipeline:  st.info.Name,
		FPS:       fps,
		Width:     st.info.Width,
		Height:    st.info.Height,
		Bitrate:   roundTo(st.info.Bitrate, 2),
		FrameLoss: frameLoss(logical, st.seq),
		Online:    st.online,
		Synced:    st.synced,
		DelayUS:   st.delayUS,
		PublishTS: now,
	}
}

// rollback restarts the accounting windows after the wall clock jumped back.
func (st *pipelineState) rollback(now uint64) types.Report {
	st.startUS = now
	st.windowStartUS = now
	return st.engineWarning(types.WarningTimestampRollback, now)
}

// settleWarnings applies the decision made by pendingWarnings.
func (st *pipelineState) settleWarnings(clearAll bool) {
	if clearAll {
		clear(st.warnings)
		return
	}
	for kind := range st.warnings {
		if transientWarnings[kind] {
			delete(st.warnings, kind)
		}
	}
}

// engineWarning builds a WARNING raised by the tracker itself rather than by
// a producer status.
func (st *pipelineState) engineWarning(kind types.WarningKind, now uint64) types.Report {
	return types.Report{
		Kind:      types.ReportWarning,
		Pipeline:  st.info.Name,
		Warning:   kind,
		Width:     st.info.Width,
		Height:    st.info.Height,
		Bitrate:   roundTo(st.info.Bitrate, 2),
		ReceiveTS: now,
		PublishTS: now,
	}
}

// pendingWarnings lists the WARNING reports for the active set in kind
// order. It does not modify active; the second result tells the caller to
// clear the set, which happens when an OK entry is found.
func pendingWarnings(info types.PipelineInfo, active map[types.WarningKind]types.WarningEvent, now uint64) ([]types.Report, bool) {
	if len(active) == 0 {
		return nil, false
	}
	kinds := make([]types.WarningKind, 0, len(active))
	for k := range active {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	reports := make([]types.Report, 0, len(kinds))
	for _, k := range kinds {
		if k == types.WarningOK {
			return reports, true
		}
		ev := active[k]
		reports = append(reports, types.Report{
			Kind:      types.ReportWarning,
			Pipeline:  info.Name,
			Warning:   ev.Kind,
			Width:     info.Width,
			Height:    info.Height,
			ReceiveTS: ev.TS,
			PublishTS: now,
		})
	}
	return reports, false
}

// frameLoss renders "<lost>/<expected>". Before the first frame every
// expected frame counts as lost.
func frameLoss(logical, seq uint64) string {
	if seq == 0 {
		return fmt.Sprintf("%d/%d", logical, logical)
	}
	lost := logical - seq
	if seq > logical {
		lost = seq - logical
	}
	return fmt.Sprintf("%d/%d", lost, logical)
}

func roundTo(f float64, places int) float64 {
	n := math.Pow(10, float64(places))
	return math.Round(f*n) / n
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
