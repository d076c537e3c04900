// Package clock provides the time source sampled by the monitor engine.
//
// The engine needs two readings per cycle: a monotonically comparable "now"
// in microseconds for all frame accounting, and a separately sampled wall
// clock used only to detect system-time rollback. Manual lets tests drive
// both independently.
package clock
