// Package api implements the HTTP REST API of the framewatch daemon.
//
// New(engine, store, protect) returns an http.Handler that serves:
//
//	POST /api/v1/frames            - enqueue a JSON array of frame signals
//	POST /api/v1/warnings          - enqueue a JSON array of raw status signals
//	GET  /api/v1/health            - overall state and per-state counts
//	GET  /api/v1/pipelines         - every registered pipeline ([]PipelineResponse)
//	GET  /api/v1/pipelines/{name}  - single pipeline; 404 if not registered
//	GET  /api/v1/snapshot          - all pipelines + generated_at
//
// The POST endpoints are wrapped with protect (typically auth.Middleware);
// GET endpoints are open. Pipeline state is read from the store, so it lags
// the engine by at most one consumer cycle. Stale store entries are shown
// as state "unknown".
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
