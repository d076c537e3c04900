// Package config loads and watches the framewatch configuration file.
//
// Top-level types:
//   - Config{Monitor, Pipelines, HTTP, Store, Shipper, Log}: full tree parsed from YAML
//   - MonitorConfig: poll_interval, heartbeat_interval for the engine loop
//   - PipelineConfig: name, fps, width, height, bitrate, media; Info() converts
//     to engine metadata
//   - HTTPConfig, ShipperConfig: transport settings, each with an AuthConfig
//     whose Key() resolves from an environment variable
//   - LogConfig: level and optional rotated log file
//
// Load(path) reads the YAML file, applies defaults (100us poll, 100ms
// heartbeat, port 8080, 5m store TTL, buffer 1000), then validates required
// fields and enums. A pipeline's fps is deliberately not validated: the
// engine clamps it at registration.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename/create pattern
// used by atomic-save editors by re-adding the watch after each event.
package config
