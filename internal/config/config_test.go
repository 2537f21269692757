package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Default(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"grpc port clash", func(c *Config) { c.GRPC.Port = c.Server.Port }, "grpc.port"},
		{"redis addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"minio bucket", func(c *Config) { c.MinIO.Enabled = true; c.MinIO.Bucket = "" }, "minio.bucket"},
		{"kafka topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }, "kafka.topic"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"coalesce", func(c *Config) { c.Viewer.CoalesceWindow = 2 * time.Second }, "coalesce_window"},
		{"camera order", func(c *Config) {
			c.Viewer.CameraRetryDelays = []time.Duration{0, 100 * time.Millisecond, 50 * time.Millisecond}
		}, "camera_retry_delays"},
		{"cutoff", func(c *Config) { c.Viewer.NearbyCutoff = -1 }, "nearby_cutoff"},
		{"scheme", func(c *Config) { c.Viewer.DefaultScheme = "rainbow" }, "default_scheme"},
		{"style", func(c *Config) { c.Viewer.DefaultStyle = "cartoon" }, "default_style"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_DisabledSectionsAreNotChecked(t *testing.T) {
	cfg := Default()
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil
	cfg.MinIO.Endpoint = ""
	assert.NoError(t, cfg.Validate())
}
