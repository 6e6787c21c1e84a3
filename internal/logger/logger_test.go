package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "atkctl.log")

	logger.Init(logger.Options{Verbose: true, IsService: true, File: logFile, MaxSizeMB: 1, MaxBackups: 1})
	t.Cleanup(func() { logger.Init(logger.Options{}) })

	log := logger.New("test").With("device", "cpu_fan")
	log.Info().Int("rpm", 3300).Msg("fan read")
	log.Debug().Msg("hidden at info level")
	log.ErrorWithCode(errors.New().New(errors.ErrUnavailable)).Msg("with code")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "fan read")
	assert.Contains(t, content, `"component":"test"`)
	assert.Contains(t, content, `"device":"cpu_fan"`)
	assert.Contains(t, content, `"error_code":"service_unavailable"`)
	assert.NotContains(t, content, "hidden at info level")
}

func TestNopLoggerDiscards(t *testing.T) {
	log := logger.Nop()

	assert.NotPanics(t, func() {
		log.Error().Str("key", "value").Msg("discarded")
		log.With("k", "v").Warn().Send()
	})
}

func TestInitOutput(t *testing.T) {
	var buf bytes.Buffer

	logger.Init(logger.Options{IsService: true, Output: &buf})
	t.Cleanup(func() { logger.Init(logger.Options{}) })

	logger.Info().Msg("below warn")
	logger.Warn().Msg("cache disabled")

	assert.Contains(t, buf.String(), "cache disabled")
	assert.NotContains(t, buf.String(), "below warn")
}
