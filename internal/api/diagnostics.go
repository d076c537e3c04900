package api

import (
	"fmt"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// DiagnosticHint is one human-readable insight about a pipeline's health.
// The dashboard shows Title on the pipeline card and Detail on hover.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level  string `json:"level"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// warningHints explains each producer or engine warning.
var warningHints = map[string]DiagnosticHint{
	types.WarningLockLost.String(): {
		Level: "critical", Title: "Signal lock lost",
		Detail: "The capture driver reports that the sensor link lost lock. Check the cable and the sensor power.",
	},
	types.WarningDriverError.String(): {
		Level: "critical", Title: "Driver error",
		Detail: "The capture driver reported an error. Frames may stop until the driver is reloaded.",
	},
	types.WarningEncodeError.String(): {
		Level: "warning", Title: "Encode error",
		Detail: "The encoder failed on at least one frame since the last heartbeat. This warning is reported once per occurrence.",
	},
	types.WarningFrameLoss.String(): {
		Level: "warning", Title: "Frames missing",
		Detail: "No frame arrived within two frame intervals. The pipeline is marked offline until the next frame.",
	},
	types.WarningStatusDelay.String(): {
		Level: "warning", Title: "Status delayed",
		Detail: "The producer reports delayed status delivery. Timestamps may lag.",
	},
	types.WarningHardwareChanged.String(): {
		Level: "warning", Title: "Hardware changed",
		Detail: "The sensor or its parameters changed at runtime. Verify the declared resolution and frame rate.",
	},
	types.WarningCalibLost.String(): {
		Level: "warning", Title: "Calibration lost",
		Detail: "The producer cannot find valid calibration data for this sensor.",
	},
	types.WarningInitFail.String(): {
		Level: "critical", Title: "Init failed",
		Detail: "The sensor failed to initialise. No frames are expected until it is restarted.",
	},
	types.WarningSerdesLock.String(): {
		Level: "critical", Title: "SerDes lock lost",
		Detail: "The serializer/deserializer link dropped. Check the coax link between sensor and deserializer.",
	},
	types.WarningTimestampRollback.String(): {
		Level: "info", Title: "Clock rolled back",
		Detail: "The system clock stepped backwards. Frame loss and fps accounting restarted from this point.",
	},
}

// computeDiagnostics derives hints for p. measured is false until a heartbeat
// has been stored. Hints are ordered: state hints first, then one per warning.
func computeDiagnostics(p PipelineResponse, measured bool) []DiagnosticHint {
	if !measured {
		return []DiagnosticHint{{
			Key:    "warming_up",
			Level:  "info",
			Title:  "Waiting for data",
			Detail: "No heartbeat has been recorded for this pipeline yet. It appears after the first evaluation tick.",
		}}
	}

	var hints []DiagnosticHint
	if !p.Online {
		hints = append(hints, DiagnosticHint{
			Key:    "offline",
			Level:  "critical",
			Title:  "Offline",
			Detail: fmt.Sprintf("No frame within two intervals at %d fps. Frame loss so far: %s.", p.Declared.FPS, p.FrameLoss),
		})
	} else if !p.Synced {
		hints = append(hints, DiagnosticHint{
			Key:    "unsynced",
			Level:  "warning",
			Title:  "Frame cadence off",
			Detail: "The gap between the last two frames strayed more than 1ms from the expected interval.",
		})
	}

	for _, w := range p.Warnings {
		hint, ok := warningHints[w]
		if !ok {
			continue
		}
		hint.Key = w
		hints = append(hints, hint)
	}

	if len(hints) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "healthy",
			Level:  "ok",
			Title:  "Healthy",
			Detail: fmt.Sprintf("Frames arrive on cadence at %.1f fps with no active warnings.", p.FPS),
		})
	}
	return hints
}
