// Package config defines the configuration structures for the viewer
// services.  No I/O lives in this file, only data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StaticDir       string        `mapstructure:"static_dir"`
	ServiceName     string        `mapstructure:"service_name"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// GRPCConfig holds the gRPC health endpoint parameters.
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Debug   bool   `mapstructure:"debug"` // registers reflection
}

// RedisConfig holds Redis connection parameters for the structure cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MinIOConfig holds object-storage parameters for remote structure files.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// KafkaConfig holds the viewer event publisher parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Acks         string        `mapstructure:"acks"` // "none" | "one" | "all"
	Compression  string        `mapstructure:"compression"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ViewerConfig holds the interactive engine tunables.
type ViewerConfig struct {
	CoalesceWindow     time.Duration   `mapstructure:"coalesce_window"`
	CameraRetryDelays  []time.Duration `mapstructure:"camera_retry_delays"`
	DragThresholdPx    float64         `mapstructure:"drag_threshold_px"`
	DeselectDelay      time.Duration   `mapstructure:"deselect_delay"`
	NearbyCutoff       float64         `mapstructure:"nearby_cutoff"`
	ShowNearby         bool            `mapstructure:"show_nearby"`
	ShowHetero         bool            `mapstructure:"show_hetero"`
	ShowResidueOverlay bool            `mapstructure:"show_residue_overlay"`
	ShowInteractions   bool            `mapstructure:"show_interactions"`
	DefaultScheme      string          `mapstructure:"default_scheme"`
	DefaultStyle       string          `mapstructure:"default_style"`
	InputBuffer        int             `mapstructure:"input_buffer"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
	Viewer  ViewerConfig  `mapstructure:"viewer"`
}

var (
	validSchemes = map[string]bool{"chain": true, "element": true, "ss": true, "spectrum": true, "bfactor": true}
	validStyles  = map[string]bool{"stick": true, "ballstick": true, "sphere": true, "line": true}
)

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.GRPC.Enabled {
		if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
			return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
		}
		if c.GRPC.Port == c.Server.Port {
			return fmt.Errorf("config: grpc.port must differ from server.port (%d)", c.Server.Port)
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis is enabled")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required when minio is enabled")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return c.Viewer.validate()
}

func (v *ViewerConfig) validate() error {
	if v.CoalesceWindow < 0 || v.CoalesceWindow > time.Second {
		return fmt.Errorf("config: viewer.coalesce_window %s is out of range [0, 1s]", v.CoalesceWindow)
	}
	var prev time.Duration
	for i, d := range v.CameraRetryDelays {
		if d < 0 || (i > 0 && d < prev) {
			return fmt.Errorf("config: viewer.camera_retry_delays must be non-negative and ascending")
		}
		prev = d
	}
	if v.DragThresholdPx < 0 {
		return fmt.Errorf("config: viewer.drag_threshold_px must be ≥ 0")
	}
	if v.DeselectDelay < 0 {
		return fmt.Errorf("config: viewer.deselect_delay must be ≥ 0")
	}
	if v.NearbyCutoff <= 0 || v.NearbyCutoff > 10 {
		return fmt.Errorf("config: viewer.nearby_cutoff %.2f is out of range (0, 10]", v.NearbyCutoff)
	}
	if !validSchemes[v.DefaultScheme] {
		return fmt.Errorf("config: viewer.default_scheme %q is invalid", v.DefaultScheme)
	}
	if !validStyles[v.DefaultStyle] {
		return fmt.Errorf("config: viewer.default_style %q is invalid", v.DefaultStyle)
	}
	return nil
}
