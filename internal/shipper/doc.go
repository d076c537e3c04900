// Package shipper forwards engine report batches to a remote collector over
// gRPC, and implements the collector side of the same service.
//
// The service is framewatch.v1.ReportService with a single unary method,
// Publish, carrying a google.protobuf.Struct and returning
// google.protobuf.Empty. The service descriptor is declared by hand in
// service.go, so no generated code is needed.
//
// Batch layout (Struct fields):
//
//	batch_id    string   uuid
//	source      string   sending host
//	created_at  string   RFC3339Nano
//	reports     list     one struct per Report, JSON field names
//
// Shipper.Ship is a monitor.Reporter. It keeps HEART_BEAT, WARNING and ERROR
// reports only (FRAME reports stay local) and never blocks: when the buffer
// is full the oldest batch is evicted. Run drains the buffer and reconnects
// after a jittered delay that doubles from shipper.retry_initial up to
// shipper.retry_max.
package shipper
