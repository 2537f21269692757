package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9000
	cfg.Viewer.NearbyCutoff = 5
	ApplyDefaults(cfg)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5.0, cfg.Viewer.NearbyCutoff)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultCameraRetryDelays, cfg.Viewer.CameraRetryDelays)
}

func TestApplyDefaults_CameraDelaysAreCopied(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Viewer.CameraRetryDelays[0] = 1
	assert.Equal(t, int64(0), int64(DefaultCameraRetryDelays[0]))
}
