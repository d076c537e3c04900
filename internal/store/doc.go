// Package store keeps the latest reported state of every pipeline in memory.
//
// Store.Report is a monitor.Reporter: install it (usually through
// sink.Fanout) and it folds each batch into one Entry per pipeline holding
// the last FRAME, the last HEART_BEAT and the WARNING reports of the most
// recent evaluation tick. Entries are replaced, never mutated, so pointers
// returned by Get and List stay consistent.
//
// A background goroutine (Run) evicts pipelines that have not reported within
// the TTL. The REST API, the WebSocket hub and the Prometheus exporter all
// read from here.
package store
