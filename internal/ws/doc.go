// Package ws implements the WebSocket hub of the framewatch daemon.
//
// Hub manages a set of connected dashboard clients. It broadcasts the full
// pipeline snapshot on a configurable interval and, when installed as a
// report sink, pushes WARNING reports the moment the engine emits them.
//
// Message format sent to clients:
//
//	{"event": "snapshot", "data": { /* same schema as GET /api/v1/snapshot */ }}
//	{"event": "warnings", "data": [ /* WARNING reports of one batch */ ]}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The hub is mounted at /ws/stream.
package ws
