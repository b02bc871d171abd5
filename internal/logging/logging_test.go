package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rhartert/satshare/internal/config"
)

func TestNewWithWriter_json(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("solved", zap.Bool("satisfiable", true))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "solved", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, true, entry["satisfiable"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriter_console(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewWithWriter(config.LogConfig{Level: "debug", Format: "console"}, buf)
	require.NoError(t, err)

	logger.Debug("worker started", zap.Int("worker", 2))

	assert.Contains(t, buf.String(), "\tdebug\t")
	assert.Contains(t, buf.String(), "worker started")
	assert.Contains(t, buf.String(), `{"worker": 2}`)
}

func TestNewWithWriter_errors(t *testing.T) {
	testCases := []struct {
		desc string
		cfg  config.LogConfig
	}{
		{"bad level", config.LogConfig{Level: "loud", Format: "json"}},
		{"bad format", config.LogConfig{Level: "info", Format: "xml"}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			logger, err := NewWithWriter(tc.cfg, &bytes.Buffer{})
			assert.Error(t, err)
			assert.Nil(t, logger)
		})
	}
}
