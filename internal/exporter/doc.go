// Package exporter serves the monitored pipeline state in the Prometheus text
// exposition format.
//
// Metric families are built directly as client_model protobufs from the
// latest store entries on every scrape and encoded with expfmt, so no
// registry or background collection is involved. Exported families:
//
//	framewatch_pipeline_fps               gauge  {pipeline}
//	framewatch_pipeline_online            gauge  {pipeline}
//	framewatch_pipeline_synced            gauge  {pipeline}
//	framewatch_pipeline_delay_us          gauge  {pipeline}
//	framewatch_pipeline_frames_lost       gauge  {pipeline}
//	framewatch_pipeline_frames_expected   gauge  {pipeline}
//	framewatch_pipeline_warning_active    gauge  {pipeline,kind}
//	framewatch_pipelines                  gauge
package exporter
