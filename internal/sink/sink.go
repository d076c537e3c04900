package sink

import (
	"log/slog"

	"github.com/obsidianstack/framewatch/internal/monitor"
	"github.com/obsidianstack/framewatch/pkg/types"
)

// Fanout returns a Reporter that hands every batch to each non-nil sink in
// order. Sinks share the batch slice and must not modify it. A panicking
// sink is logged and the remaining sinks still receive the batch.
func Fanout(sinks ...monitor.Reporter) monitor.Reporter {
	live := make([]monitor.Reporter, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return func(batch []types.Report) {
		for i, s := range live {
			deliver(i, s, batch)
		}
	}
}

func deliver(i int, s monitor.Reporter, batch []types.Report) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sink: reporter panicked", "sink", i, "panic", r, "batch", len(batch))
		}
	}()
	s(batch)
}

// Log returns a Reporter that writes warnings at warn level and heartbeats
// at debug level. FRAME reports are not logged; at camera rates they would
// drown everything else.
func Log(logger *slog.Logger) monitor.Reporter {
	return func(batch []types.Report) {
		for _, r := range batch {
			switch r.Kind {
			case types.ReportWarning:
				logger.Warn("pipeline warning",
					"pipeline", r.Pipeline,
					"warning", r.Warning.String(),
					"receive_ts_us", r.ReceiveTS,
				)
			case types.ReportHeartBeat:
				logger.Debug("pipeline heartbeat",
					"pipeline", r.Pipeline,
					"fps", r.FPS,
					"frame_loss", r.FrameLoss,
					"online", r.Online,
					"synced", r.Synced,
					"delay_us", r.DelayUS,
				)
			case types.ReportError:
				logger.Error("pipeline error", "pipeline", r.Pipeline, "details", r.Details)
			}
		}
	}
}
