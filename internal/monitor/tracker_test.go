package monitor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// t0 is an arbitrary non-zero start time in microseconds.
const t0 uint64 = 1_000_000_000

func cam(fps uint32) types.PipelineInfo {
	return types.PipelineInfo{Name: "cam0", FPS: fps, Width: 1920, Height: 1080, Bitrate: 4.256}
}

// --- per-frame update ---

func TestObserveFrame_FirstFrameInitialisesWindows(t *testing.T) {
	st := newPipelineState(cam(10))
	r := st.observeFrame(types.FrameSignal{Pipeline: "cam0", SensorTS: 500, ReceiveTS: 1500}, t0)

	if st.startUS != t0 || st.windowStartUS != t0 || st.latestFrameUS != t0 {
		t.Errorf("start/window/latest = %d/%d/%d, want all %d",
			st.startUS, st.windowStartUS, st.latestFrameUS, t0)
	}
	if st.synced {
		t.Error("first frame should not be synced (gap 0 vs 100ms interval)")
	}
	if !st.online {
		t.Error("first frame should mark the pipeline online")
	}
	if st.delayUS != 1000 {
		t.Errorf("delayUS = %d, want 1000", st.delayUS)
	}

	want := types.Report{Kind: types.ReportFrame, Pipeline: "cam0", Seq: 1, SensorTS: 500, PublishTS: t0}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("FRAME report mismatch (-want +got):\n%s", diff)
	}
}

func TestObserveFrame_Sync(t *testing.T) {
	tests := []struct {
		name   string
		gapUS  uint64
		synced bool
	}{
		{"exact interval", 100_000, true},
		{"half interval", 50_000, false},
		{"within tolerance late", 101_000, true},
		{"within tolerance early", 99_000, true},
		{"just outside tolerance", 101_001, false},
		{"double interval", 200_000, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newPipelineState(cam(10))
			st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0)
			st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0+tc.gapUS)
			if st.synced != tc.synced {
				t.Errorf("synced = %v, want %v", st.synced, tc.synced)
			}
		})
	}
}

func TestObserveFrame_NegativeDelayClampsToZero(t *testing.T) {
	st := newPipelineState(cam(10))
	st.observeFrame(types.FrameSignal{Pipeline: "cam0", SensorTS: 2000, ReceiveTS: 1000}, t0)
	if st.delayUS != 0 {
		t.Errorf("delayUS = %d, want 0 when receive precedes sensor", st.delayUS)
	}
}

func TestObserveFrame_CountsSeqAndWindow(t *testing.T) {
	st := newPipelineState(cam(10))
	for i := uint64(0); i < 5; i++ {
		st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0+i*100_000)
	}
	if st.seq != 5 || st.windowFrames != 5 {
		t.Errorf("seq/windowFrames = %d/%d, want 5/5", st.seq, st.windowFrames)
	}
}

// --- warnings ---

func TestApplyWarning_SetSemantics(t *testing.T) {
	st := newPipelineState(cam(10))
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", TS: 1, Kind: types.WarningLockLost})
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", TS: 2, Kind: types.WarningLockLost})

	if len(st.warnings) != 1 {
		t.Fatalf("active warnings = %d, want 1", len(st.warnings))
	}
	if got := st.warnings[types.WarningLockLost].TS; got != 2 {
		t.Errorf("repeated warning TS = %d, want refreshed to 2", got)
	}
}

func TestApplyWarning_OKClearsAll(t *testing.T) {
	st := newPipelineState(cam(10))
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", Kind: types.WarningEncodeError})
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", Kind: types.WarningDriverError})
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", Kind: types.WarningOK})

	if len(st.warnings) != 0 {
		t.Errorf("active warnings after OK = %d, want 0", len(st.warnings))
	}
}

func TestPendingWarnings_OrderedAndPure(t *testing.T) {
	info := cam(10)
	active := map[types.WarningKind]types.WarningEvent{
		types.WarningSerdesLock: {Pipeline: "cam0", TS: 30, Kind: types.WarningSerdesLock},
		types.WarningLockLost:   {Pipeline: "cam0", TS: 10, Kind: types.WarningLockLost},
	}
	reports, clearAll := pendingWarnings(info, active, t0)

	if clearAll {
		t.Error("clearAll = true without an OK entry")
	}
	if len(active) != 2 {
		t.Errorf("pendingWarnings modified the active set: %d entries", len(active))
	}
	want := []types.Report{
		{Kind: types.ReportWarning, Pipeline: "cam0", Warning: types.WarningLockLost, Width: 1920, Height: 1080, ReceiveTS: 10, PublishTS: t0},
		{Kind: types.ReportWarning, Pipeline: "cam0", Warning: types.WarningSerdesLock, Width: 1920, Height: 1080, ReceiveTS: 30, PublishTS: t0},
	}
	if diff := cmp.Diff(want, reports); diff != "" {
		t.Errorf("reports mismatch (-want +got):\n%s", diff)
	}
}

func TestPendingWarnings_OKEntryStopsEmission(t *testing.T) {
	active := map[types.WarningKind]types.WarningEvent{
		types.WarningOK:       {Pipeline: "cam0", Kind: types.WarningOK},
		types.WarningLockLost: {Pipeline: "cam0", Kind: types.WarningLockLost},
	}
	reports, clearAll := pendingWarnings(cam(10), active, t0)
	if !clearAll {
		t.Error("clearAll = false with an OK entry present")
	}
	if len(reports) != 0 {
		t.Errorf("reports = %d, want 0 once OK is seen", len(reports))
	}
}

func TestEvaluate_EncodeErrorIsTransient(t *testing.T) {
	st := newPipelineState(cam(10))
	st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0)
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", Kind: types.WarningEncodeError})
	st.applyWarning(types.WarningEvent{Pipeline: "cam0", Kind: types.WarningCalibLost})

	first := warningKinds(st.evaluate(nil, t0+50_000))
	if !first[types.WarningEncodeError] || !first[types.WarningCalibLost] {
		t.Fatalf("first heartbeat warnings = %v, want ENCODE_ERROR and CALIB_LOST", first)
	}

	second := warningKinds(st.evaluate(nil, t0+100_000))
	if second[types.WarningEncodeError] {
		t.Error("ENCODE_ERROR reported twice, want once")
	}
	if !second[types.WarningCalibLost] {
		t.Error("CALIB_LOST should persist until OK")
	}
}

// --- liveness ---

func TestCheckLiveness(t *testing.T) {
	st := newPipelineState(cam(10))
	st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0)

	if _, lost := st.checkLiveness(t0 + 199_999); lost {
		t.Fatal("liveness fired before two intervals")
	}
	r, lost := st.checkLiveness(t0 + 200_000)
	if !lost {
		t.Fatal("liveness did not fire at two intervals")
	}
	if st.online {
		t.Error("pipeline still online after liveness fired")
	}
	if r.Warning != types.WarningFrameLoss || r.Bitrate != 4.26 {
		t.Errorf("liveness report = %+v, want FRAME_LOSS with bitrate 4.26", r)
	}
	if st.latestFrameUS != t0+200_000 {
		t.Errorf("latestFrameUS = %d, want advanced to %d", st.latestFrameUS, t0+200_000)
	}
	if _, lost := st.checkLiveness(t0 + 250_000); lost {
		t.Error("liveness re-fired immediately after advancing")
	}
}

// --- heartbeat ---

func TestHeartbeat_FrameLossRatio(t *testing.T) {
	st := newPipelineState(cam(10))
	st.seq = 50
	st.windowFrames = 50
	st.startUS = t0
	st.windowStartUS = t0
	now := t0 + 6_000_000

	r := st.heartbeat(now)
	if r.FrameLoss != "10/60" {
		t.Errorf("FrameLoss = %q, want %q", r.FrameLoss, "10/60")
	}
	if !almostEqual(r.FPS, 50.0/6.0, 0.001) {
		t.Errorf("FPS = %.4f, want %.4f", r.FPS, 50.0/6.0)
	}
}

func TestFrameLoss(t *testing.T) {
	tests := []struct {
		logical, seq uint64
		want         string
	}{
		{60, 50, "10/60"},
		{10, 10, "0/10"},
		{10, 12, "2/10"}, // more frames than expected still counts the gap
		{30, 0, "30/30"},
		{0, 0, "0/0"},
	}
	for _, tc := range tests {
		if got := frameLoss(tc.logical, tc.seq); got != tc.want {
			t.Errorf("frameLoss(%d, %d) = %q, want %q", tc.logical, tc.seq, got, tc.want)
		}
	}
}

func TestHeartbeat_BeforeFirstFrame(t *testing.T) {
	st := newPipelineState(cam(10))
	r := st.heartbeat(t0)
	if r.FPS != 0 || r.FrameLoss != "0/0" || r.Online {
		t.Errorf("unseen heartbeat = %+v, want fps 0, frame_loss 0/0, offline", r)
	}
}

func TestEvaluate_WindowReset(t *testing.T) {
	st := newPipelineState(cam(10))
	st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0)
	now := t0 + fpsWindowUS + 1

	st.evaluate(nil, now)
	if st.windowFrames != 0 || st.windowStartUS != now {
		t.Errorf("window = %d frames from %d, want reset to 0 from %d",
			st.windowFrames, st.windowStartUS, now)
	}
	if st.startUS != t0 {
		t.Errorf("startUS = %d, window reset must not touch it", st.startUS)
	}
}

func TestRollback(t *testing.T) {
	st := newPipelineState(cam(10))
	st.observeFrame(types.FrameSignal{Pipeline: "cam0"}, t0)
	now := t0 + 500_000

	r := st.rollback(now)
	if st.startUS != now || st.windowStartUS != now {
		t.Errorf("start/window = %d/%d, want %d", st.startUS, st.windowStartUS, now)
	}
	if r.Kind != types.ReportWarning || r.Warning != types.WarningTimestampRollback {
		t.Errorf("rollback report = %+v", r)
	}
	if st.seq != 1 {
		t.Errorf("seq = %d, rollback must keep counters", st.seq)
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{4.256, 4.26}, {4.254, 4.25}, {0, 0}, {12.5, 12.5},
	}
	for _, tc := range tests {
		if got := roundTo(tc.in, 2); !almostEqual(got, tc.want, 1e-9) {
			t.Errorf("roundTo(%v, 2) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func warningKinds(batch []types.Report) map[types.WarningKind]bool {
	out := make(map[types.WarningKind]bool)
	for _, r := range batch {
		if r.Kind == types.ReportWarning {
			out[r.Warning] = true
		}
	}
	return out
}

func almostEqual(a, b, epsilon float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < epsilon
}
