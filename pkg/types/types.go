package types

import "fmt"

// DefaultFPS replaces any declared frame rate outside (0, MaxFPS].
const (
	DefaultFPS = 10
	MaxFPS     = 30
)

// MediaKind is the payload encoding a pipeline produces.
type MediaKind uint8

const (
	MediaBGR888 MediaKind = iota
	MediaH26x
	MediaJPEG
)

var mediaNames = [...]string{
	MediaBGR888: "bgr888",
	MediaH26x:   "h26x",
	MediaJPEG:   "jpeg",
}

func (m MediaKind) String() string {
	if int(m) < len(mediaNames) {
		return mediaNames[m]
	}
	return fmt.Sprintf("media(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m MediaKind) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MediaKind) UnmarshalText(b []byte) error {
	v, err := ParseMediaKind(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMediaKind maps the config spelling of a media kind to its value.
// An empty string selects MediaBGR888.
func ParseMediaKind(s string) (MediaKind, error) {
	if s == "" {
		return MediaBGR888, nil
	}
	for i, name := range mediaNames {
		if name == s {
			return MediaKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown media kind %q", s)
}

// PipelineInfo is the declared metadata of one capture pipeline.
type PipelineInfo struct {
	Name    string    `json:"name"`
	FPS     uint32    `json:"fps"`
	Width   uint32    `json:"width"`
	Height  uint32    `json:"height"`
	Bitrate float64   `json:"bitrate"`
	Media   MediaKind `json:"media"`
}

// FrameInterval returns the expected time between two frames in microseconds.
// FPS must already be clamped.
func (p PipelineInfo) FrameInterval() uint64 {
	return 1_000_000 / uint64(p.FPS)
}

// FrameSignal reports that one frame of Pipeline was delivered.
// Timestamps are microseconds.
type FrameSignal struct {
	Pipeline  string `json:"pipeline"`
	SensorTS  uint64 `json:"sensor_ts_us"`
	ReceiveTS uint64 `json:"receive_ts_us"`
}

// RawWarningSignal carries a free-form status string from a producer.
type RawWarningSignal struct {
	Pipeline string `json:"pipeline"`
	TS       uint64 `json:"ts_us"`
	Status   string `json:"status"`
}

// WarningKind is the closed set of conditions a pipeline can be in.
type WarningKind uint8

const (
	WarningOK WarningKind = iota
	WarningLockLost
	WarningDriverError
	WarningEncodeError
	WarningFrameLoss
	WarningStatusDelay
	WarningHardwareChanged
	WarningCalibLost
	WarningInitFail
	WarningSerdesLock
	WarningTimestampRollback
)

var warningNames = [...]string{
	WarningOK:                "OK",
	WarningLockLost:          "LOCK_LOST",
	WarningDriverError:       "DRIVER_ERROR",
	WarningEncodeError:       "ENCODE_ERROR",
	WarningFrameLoss:         "FRAME_LOSS",
	WarningStatusDelay:       "STATUS_DELAY",
	WarningHardwareChanged:   "HARDWARE_CHANGED",
	WarningCalibLost:         "CALIB_LOST",
	WarningInitFail:          "INIT_FAIL",
	WarningSerdesLock:        "SERDES_LOCK",
	WarningTimestampRollback: "TIMESTAMP_ROLLBACK",
}

func (k WarningKind) String() string {
	if int(k) < len(warningNames) {
		return warningNames[k]
	}
	return fmt.Sprintf("WARNING(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WarningKind) UnmarshalText(b []byte) error {
	for i, name := range warningNames {
		if name == string(b) {
			*k = WarningKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown warning kind %q", b)
}

// WarningEvent is a normalized warning. Two events with the same Key are the
// same warning; TS is metadata only.
type WarningEvent struct {
	Pipeline string
	TS       uint64
	Kind     WarningKind
}

// WarningKey identifies an active warning.
type WarningKey struct {
	Pipeline string
	Kind     WarningKind
}

// Key returns the identity of e.
func (e WarningEvent) Key() WarningKey {
	return WarningKey{Pipeline: e.Pipeline, Kind: e.Kind}
}

// ReportKind discriminates the Report union.
type ReportKind uint8

const (
	ReportFrame ReportKind = iota
	ReportHeartBeat
	ReportWarning
	// ReportError is reserved; the engine does not emit it.
	ReportError
)

var reportNames = [...]string{
	ReportFrame:     "FRAME",
	ReportHeartBeat: "HEART_BEAT",
	ReportWarning:   "WARNING",
	ReportError:     "ERROR",
}

func (k ReportKind) String() string {
	if int(k) < len(reportNames) {
		return reportNames[k]
	}
	return fmt.Sprintf("REPORT(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k ReportKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ReportKind) UnmarshalText(b []byte) error {
	for i, name := range reportNames {
		if name == string(b) {
			*k = ReportKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown report kind %q", b)
}

// Report is one entry of a batch handed to a sink. Only the fields relevant
// to Kind are populated:
//
//	FRAME:      Pipeline, Seq, SensorTS, PublishTS
//	HEART_BEAT: Pipeline, FPS, Width, Height, Bitrate, FrameLoss, Online,
//	            Synced, DelayUS, PublishTS
//	WARNING:    Pipeline, Warning, Width, Height, ReceiveTS, PublishTS
//	            (Bitrate for engine-raised FRAME_LOSS and TIMESTAMP_ROLLBACK)
type Report struct {
	Kind      ReportKind  `json:"kind"`
	Pipeline  string      `json:"pipeline"`
	Seq       uint64      `json:"seq,omitempty"`
	FPS       float64     `json:"fps,omitempty"`
	Width     uint32      `json:"width,omitempty"`
	Height    uint32      `json:"height,omitempty"`
	Bitrate   float64     `json:"bitrate,omitempty"`
	FrameLoss string      `json:"frame_loss,omitempty"`
	SensorTS  uint64      `json:"sensor_ts_us,omitempty"`
	ReceiveTS uint64      `json:"receive_ts_us,omitempty"`
	PublishTS uint64      `json:"publish_ts_us"`
	Warning   WarningKind `json:"warning,omitempty"` // never OK on a WARNING report
	Online    bool        `json:"online"`
	Synced    bool        `json:"synced"`
	DelayUS   uint64      `json:"delay_us,omitempty"`
	Details   string      `json:"details,omitempty"`
}
