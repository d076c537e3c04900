// Package types defines the shared Go types used by the monitor engine and
// every sink around it: pipeline metadata, the two producer signal shapes,
// the closed warning enumeration and the Report union handed to sinks.
// These are the canonical in-memory representations; JSON tags define the
// shape seen by the REST API, the WebSocket hub and the shipper.
package types
