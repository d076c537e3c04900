package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/framewatch/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPollInterval      = 100 * time.Microsecond
	DefaultHeartbeatInterval = 100 * time.Millisecond
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = time.Second
	DefaultStoreTTL          = 5 * time.Minute
	DefaultBufferSize        = 1000
	DefaultRetryInitial      = time.Second
	DefaultRetryMax          = time.Minute
	DefaultLogLevel          = "info"
	DefaultAPIKeyHeader      = "X-API-Key"
)

// Config is the top-level configuration of the framewatch daemon.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Monitor   MonitorConfig    `yaml:"monitor"`
	Pipelines []PipelineConfig `yaml:"pipelines"`
	HTTP      HTTPConfig       `yaml:"http"`
	Store     StoreConfig      `yaml:"store"`
	Shipper   ShipperConfig    `yaml:"shipper"`
	Collector CollectorConfig  `yaml:"collector"`
	Log       LogConfig        `yaml:"log"`
}

// MonitorConfig tunes the engine's consumer loop.
type MonitorConfig struct {
	// PollInterval is how often the consumer drains the intake queues.
	PollInterval time.Duration `yaml:"poll_interval"`

	// HeartbeatInterval is the cadence of heartbeat and warning reports.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// PipelineConfig declares one capture pipeline.
type PipelineConfig struct {
	Name    string  `yaml:"name"`
	FPS     uint32  `yaml:"fps"`
	Width   uint32  `yaml:"width"`
	Height  uint32  `yaml:"height"`
	Bitrate float64 `yaml:"bitrate"`

	// Media is one of: bgr888 | h26x | jpeg. Empty means bgr888.
	Media string `yaml:"media"`
}

// Info converts the declaration to engine metadata. Media must have passed
// validation. FPS is passed through unchecked; the engine clamps it.
func (p PipelineConfig) Info() types.PipelineInfo {
	media, _ := types.ParseMediaKind(p.Media)
	return types.PipelineInfo{
		Name:    p.Name,
		FPS:     p.FPS,
		Width:   p.Width,
		Height:  p.Height,
		Bitrate: p.Bitrate,
		Media:   media,
	}
}

// HTTPConfig configures the REST API, /metrics and the WebSocket hub.
type HTTPConfig struct {
	// Port is the listen port. 0 disables the HTTP server.
	Port int `yaml:"port"`

	// BroadcastInterval controls how often WebSocket clients get a snapshot.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Auth protects the intake endpoints.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies an API key check.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the header (or gRPC metadata key) carrying the key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// StoreConfig configures the in-memory latest-state store.
type StoreConfig struct {
	// TTL evicts pipelines that have not reported for this long.
	TTL time.Duration `yaml:"ttl"`
}

// ShipperConfig configures forwarding of report batches to a collector.
type ShipperConfig struct {
	// Endpoint is the gRPC address of the collector (host:port).
	// Empty disables shipping.
	Endpoint string `yaml:"endpoint"`

	// BufferSize is the maximum number of batches held while the collector
	// is unreachable.
	BufferSize int `yaml:"buffer_size"`

	// RetryInitial and RetryMax bound the reconnect delay. The delay doubles
	// after every failed attempt up to RetryMax.
	RetryInitial time.Duration `yaml:"retry_initial"`
	RetryMax     time.Duration `yaml:"retry_max"`

	// Auth configures the API key sent as gRPC metadata.
	Auth AuthConfig `yaml:"auth"`
}

// CollectorConfig enables the gRPC endpoint that accepts batches shipped by
// other framewatch instances and folds them into the local store.
type CollectorConfig struct {
	// Listen is the gRPC listen address (e.g. ":9443"). Empty disables it.
	Listen string `yaml:"listen"`

	// Auth is enforced on every incoming Publish call.
	Auth AuthConfig `yaml:"auth"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// File, when set, receives a rotated copy of the log stream.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PollInterval:      DefaultPollInterval,
			HeartbeatInterval: DefaultHeartbeatInterval,
		},
		HTTP: HTTPConfig{
			Port:              DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
			Auth:              AuthConfig{Header: DefaultAPIKeyHeader},
		},
		Store: StoreConfig{TTL: DefaultStoreTTL},
		Shipper: ShipperConfig{
			BufferSize:   DefaultBufferSize,
			RetryInitial: DefaultRetryInitial,
			RetryMax:     DefaultRetryMax,
			Auth:         AuthConfig{Header: "x-api-key"},
		},
		Collector: CollectorConfig{
			Auth: AuthConfig{Header: "x-api-key"},
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if cfg.Monitor.HeartbeatInterval <= 0 {
		return fmt.Errorf("monitor.heartbeat_interval must be positive")
	}
	if cfg.Monitor.PollInterval > cfg.Monitor.HeartbeatInterval {
		return fmt.Errorf("monitor.poll_interval must not exceed heartbeat_interval")
	}
	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", cfg.HTTP.Port)
	}
	if cfg.HTTP.BroadcastInterval <= 0 {
		return fmt.Errorf("http.broadcast_interval must be positive")
	}
	if cfg.Store.TTL <= 0 {
		return fmt.Errorf("store.ttl must be positive")
	}
	if cfg.Shipper.BufferSize <= 0 {
		return fmt.Errorf("shipper.buffer_size must be positive")
	}
	if cfg.Shipper.RetryInitial <= 0 {
		return fmt.Errorf("shipper.retry_initial must be positive")
	}
	if cfg.Shipper.RetryMax < cfg.Shipper.RetryInitial {
		return fmt.Errorf("shipper.retry_max must not be below retry_initial")
	}
	if err := validateAuth("http.auth", cfg.HTTP.Auth); err != nil {
		return err
	}
	if err := validateAuth("shipper.auth", cfg.Shipper.Auth); err != nil {
		return err
	}
	if err := validateAuth("collector.auth", cfg.Collector.Auth); err != nil {
		return err
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}

	seen := make(map[string]bool, len(cfg.Pipelines))
	for i, p := range cfg.Pipelines {
		if p.Name == "" {
			return fmt.Errorf("pipelines[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("pipelines[%d] %q: duplicate name", i, p.Name)
		}
		seen[p.Name] = true
		if _, err := types.ParseMediaKind(p.Media); err != nil {
			return fmt.Errorf("pipelines[%d] %q: %w", i, p.Name, err)
		}
		if p.Bitrate < 0 {
			return fmt.Errorf("pipelines[%d] %q: bitrate must not be negative", i, p.Name)
		}
	}
	return nil
}

func validateAuth(field string, a AuthConfig) error {
	switch a.Mode {
	case "apikey":
		if a.Header == "" {
			return fmt.Errorf("%s: header is required for apikey mode", field)
		}
	case "none", "":
	default:
		return fmt.Errorf("%s: unknown auth mode %q", field, a.Mode)
	}
	return nil
}
