package api

import "github.com/obsidianstack/framewatch/pkg/types"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State         string `json:"state"`
	PipelineCount int    `json:"pipeline_count"`
	HealthyCount  int    `json:"healthy_count"`
	DegradedCount int    `json:"degraded_count"`
	CriticalCount int    `json:"critical_count"`
	UnknownCount  int    `json:"unknown_count"`
	WarningCount  int    `json:"warning_count"`
	FrameBacklog  int    `json:"frame_backlog"`
	StatusBacklog int    `json:"status_backlog"`
}

// PipelineResponse is one pipeline entry in GET /api/v1/pipelines or
// GET /api/v1/pipelines/{name}. Measured fields are zero until the first
// heartbeat has been stored.
type PipelineResponse struct {
	Name     string             `json:"name"`
	Declared types.PipelineInfo `json:"declared"`
	State    string             `json:"state"`

	Online    bool    `json:"online"`
	Synced    bool    `json:"synced"`
	FPS       float64 `json:"fps"`
	FrameLoss string  `json:"frame_loss,omitempty"`
	DelayUS   uint64  `json:"delay_us"`
	LastSeq   uint64  `json:"last_seq"`
	LastFrame uint64  `json:"last_frame_sensor_ts_us,omitempty"`

	Warnings    []string         `json:"warnings"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
	LastSeen    string           `json:"last_seen,omitempty"` // RFC3339
}

// SnapshotResponse is the payload for GET /api/v1/snapshot.
type SnapshotResponse struct {
	Pipelines   []PipelineResponse `json:"pipelines"`
	GeneratedAt string             `json:"generated_at"` // RFC3339
}

// IntakeResponse acknowledges a POST to an intake endpoint.
type IntakeResponse struct {
	Accepted int `json:"accepted"`
	// Ignored counts status strings the engine does not recognise.
	Ignored int `json:"ignored,omitempty"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
