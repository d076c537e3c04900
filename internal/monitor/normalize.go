package monitor

import "github.com/obsidianstack/framewatch/pkg/types"

// statusTable maps the status strings producers emit to warning kinds.
var statusTable = map[string]types.WarningKind{
	"ok":            types.WarningOK,
	"lock_lost":     types.WarningLockLost,
	"encode_error":  types.WarningEncodeError,
	"hal_lost":      types.WarningDriverError,
	"read_timeout":  types.WarningFrameLoss,
	"delay":         types.WarningStatusDelay,
	"black":         types.WarningDriverError,
	"change":        types.WarningHardwareChanged,
	"calib_missing": types.WarningCalibLost,
	"init_error":    types.WarningInitFail,
	"sedres_lock":   types.WarningSerdesLock,
}

// Normalize maps a producer status string to its WarningKind.
// The second result is false for text outside the table.
func Normalize(text string) (types.WarningKind, bool) {
	k, ok := statusTable[text]
	return k, ok
}
