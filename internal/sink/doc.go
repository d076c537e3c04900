// Package sink provides monitor.Reporter adapters.
//
// Fanout delivers each batch to several sinks in order and isolates a
// panicking sink from the rest. Log writes warnings and errors to the
// structured logger and heartbeats at debug level.
package sink
