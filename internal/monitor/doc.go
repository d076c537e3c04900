// Package monitor aggregates frame and status signals from capture pipelines
// into per-pipeline health reports.
//
// Producers call SubmitFrame and SubmitWarning from any goroutine; each call
// appends to one of two intake queues guarded by their own mutex. A single
// consumer (Run, or Start/Stop around it) drains both queues once per poll
// interval, advances the per-pipeline state under a third lock, and on the
// heartbeat cadence (default 100ms) stages HEART_BEAT and WARNING reports.
// The Reporter is invoked once per cycle with the non-empty batch and with no
// lock held.
//
// registry.go  - RegisterPipeline upsert, fps clamping
// intake.go    - the two producer queues
// normalize.go - status text to WarningKind table
// tracker.go   - pipelineState: sync, delay, fps, frame loss, warnings
// scheduler.go - RunOnce cycle, cadence and rollback handling, Run loop
//
// Signals naming a pipeline that was never registered are dropped, both for
// frames and for warnings. The clock is injectable (WithClock) so tests
// drive cycles deterministically through RunOnce.
package monitor
