package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort  = 8082
	DefaultServerMode  = "release"
	DefaultServiceName = "VF Structure Viewer"
	DefaultStaticDir   = "./web"

	DefaultGRPCPort = 9082

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 30 * time.Minute
	DefaultRedisKeyPrefix = "vf:"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "structures"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "vf.viewer.events"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "vf"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultCoalesceWindow  = 30 * time.Millisecond
	DefaultDragThresholdPx = 5.0
	DefaultDeselectDelay   = 250 * time.Millisecond
	DefaultNearbyCutoff    = 4.0
	DefaultScheme          = "chain"
	DefaultStyle           = "stick"
	DefaultInputBuffer     = 64
)

// DefaultCameraRetryDelays is the camera re-apply schedule after a rebuild.
var DefaultCameraRetryDelays = []time.Duration{0, 50 * time.Millisecond, 150 * time.Millisecond, 300 * time.Millisecond}

// registerDefaults seeds viper with every default so that env-only loading
// sees the keys and booleans that default to true stay true.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.service_name", DefaultServiceName)
	v.SetDefault("server.static_dir", DefaultStaticDir)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_size", int64(32<<20))

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", DefaultGRPCPort)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.default_ttl", DefaultRedisTTL)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.bucket", DefaultMinIOBucket)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.topic", DefaultKafkaTopic)
	v.SetDefault("kafka.acks", "one")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("viewer.coalesce_window", DefaultCoalesceWindow)
	v.SetDefault("viewer.camera_retry_delays", DefaultCameraRetryDelays)
	v.SetDefault("viewer.drag_threshold_px", DefaultDragThresholdPx)
	v.SetDefault("viewer.deselect_delay", DefaultDeselectDelay)
	v.SetDefault("viewer.nearby_cutoff", DefaultNearbyCutoff)
	v.SetDefault("viewer.show_nearby", true)
	v.SetDefault("viewer.show_hetero", true)
	v.SetDefault("viewer.show_residue_overlay", true)
	v.SetDefault("viewer.show_interactions", true)
	v.SetDefault("viewer.default_scheme", DefaultScheme)
	v.SetDefault("viewer.default_style", DefaultStyle)
	v.SetDefault("viewer.input_buffer", DefaultInputBuffer)
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicit values always win.  Booleans are left alone: their defaults are
// carried by registerDefaults during loading.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ServiceName == "" {
		cfg.Server.ServiceName = DefaultServiceName
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = DefaultStaticDir
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 32 << 20
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.Acks == "" {
		cfg.Kafka.Acks = "one"
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Viewer ────────────────────────────────────────────────────────────────
	if cfg.Viewer.CoalesceWindow == 0 {
		cfg.Viewer.CoalesceWindow = DefaultCoalesceWindow
	}
	if len(cfg.Viewer.CameraRetryDelays) == 0 {
		cfg.Viewer.CameraRetryDelays = append([]time.Duration(nil), DefaultCameraRetryDelays...)
	}
	if cfg.Viewer.DragThresholdPx == 0 {
		cfg.Viewer.DragThresholdPx = DefaultDragThresholdPx
	}
	if cfg.Viewer.DeselectDelay == 0 {
		cfg.Viewer.DeselectDelay = DefaultDeselectDelay
	}
	if cfg.Viewer.NearbyCutoff == 0 {
		cfg.Viewer.NearbyCutoff = DefaultNearbyCutoff
	}
	if cfg.Viewer.DefaultScheme == "" {
		cfg.Viewer.DefaultScheme = DefaultScheme
	}
	if cfg.Viewer.DefaultStyle == "" {
		cfg.Viewer.DefaultStyle = DefaultStyle
	}
	if cfg.Viewer.InputBuffer == 0 {
		cfg.Viewer.InputBuffer = DefaultInputBuffer
	}
}

// Default returns a Config populated with defaults for everything, including
// the boolean toggles that default to true.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.GRPC.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Viewer.ShowNearby = true
	cfg.Viewer.ShowHetero = true
	cfg.Viewer.ShowResidueOverlay = true
	cfg.Viewer.ShowInteractions = true
	return cfg
}
