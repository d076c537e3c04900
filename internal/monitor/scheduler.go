package monitor

import (
	"context"
	"time"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// Run performs a cycle every poll interval until ctx is cancelled, then runs
// a final cycle so nothing submitted before cancellation stays buffered.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(e.poll)
	defer t.Stop()

	e.log.Info("monitor: runner started",
		"poll_interval", e.poll,
		"heartbeat_interval", time.Duration(e.heartbeatUS)*time.Microsecond)

	for {
		select {
		case <-ctx.Done():
			e.RunOnce()
			e.log.Info("monitor: runner stopped")
			return
		case <-t.C:
			e.RunOnce()
		}
	}
}

// RunOnce performs one consumer cycle: drain frames, drain warnings,
// evaluate the heartbeat cadence, then hand the batch to the Reporter.
func (e *Engine) RunOnce() {
	now := e.clock.NowMicros()
	wall := e.clock.WallMicros()

	frames := e.frames.drain()
	warnings := e.warnings.drain()

	e.mu.Lock()
	batch := e.applyFrames(nil, frames, now)
	e.applyWarnings(warnings)
	batch = e.evaluate(batch, now, wall)
	e.mu.Unlock()

	e.emit(batch)
}

func (e *Engine) applyFrames(batch []types.Report, frames []types.FrameSignal, now uint64) []types.Report {
	for _, sig := range frames {
		st, ok := e.pipelines[sig.Pipeline]
		if !ok {
			e.log.Debug("monitor: frame for unregistered pipeline dropped", "pipeline", sig.Pipeline)
			continue
		}
		batch = append(batch, st.observeFrame(sig, now))
	}
	return batch
}

func (e *Engine) applyWarnings(warnings []types.RawWarningSignal) {
	for _, sig := range warnings {
		kind, ok := Normalize(sig.Status)
		if !ok {
			e.log.Warn("monitor: status not recognised, dropped",
				"pipeline", sig.Pipeline, "status", sig.Status)
			continue
		}
		st, ok := e.pipelines[sig.Pipeline]
		if !ok {
			e.log.Debug("monitor: warning for unregistered pipeline dropped",
				"pipeline", sig.Pipeline, "status", sig.Status)
			continue
		}
		st.applyWarning(types.WarningEvent{Pipeline: sig.Pipeline, TS: sig.TS, Kind: kind})
	}
}

// evaluate decides between a rollback tick, a heartbeat tick or nothing,
// based on the wall sample. A wall sample below the previous tick means the
// system clock was stepped back.
func (e *Engine) evaluate(batch []types.Report, now uint64, wall int64) []types.Report {
	elapsed := wall - e.lastTick
	switch {
	case elapsed < 0:
		e.log.Warn("monitor: wall clock rolled back, restarting accounting",
			"previous_us", e.lastTick, "current_us", wall, "pipelines", len(e.names))
		e.lastTick = wall
		for _, name := range e.names {
			batch = append(batch, e.pipelines[name].rollback(now))
		}
	case elapsed >= e.heartbeatUS:
		e.lastTick = wall
		for _, name := range e.names {
			batch = e.pipelines[name].evaluate(batch, now)
		}
	}
	return batch
}

// emit hands batch to the current Reporter. A panicking Reporter is logged
// and does not stop the consumer.
func (e *Engine) emit(batch []types.Report) {
	if len(batch) == 0 {
		return
	}
	rp := e.reporter.Load()
	if rp == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("monitor: reporter panicked", "panic", r, "batch", len(batch))
		}
	}()
	(*rp)(batch)
}
