package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":4050", cfg.ListenAddr)
	assert.Equal(t, "drowning_events", cfg.KafkaTopic)
	assert.Equal(t, 30*time.Second, cfg.DetectTimeout)
	assert.Equal(t, 5, cfg.DetectBurst)
	assert.Equal(t, 16, cfg.SessionBuffer)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("DETECT_TIMEOUT", "5s")
	t.Setenv("DETECT_RATE", "0.5")
	t.Setenv("SESSION_BUFFER", "4")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.DetectTimeout)
	assert.Equal(t, 0.5, cfg.DetectRate)
	assert.Equal(t, 4, cfg.SessionBuffer)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("DETECT_TIMEOUT", "soon")
	t.Setenv("DETECT_BURST", "many")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.DetectTimeout)
	assert.Equal(t, 5, cfg.DetectBurst)
}
