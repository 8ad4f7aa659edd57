package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	log := Logger("test")
	log.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "subsystem=test")
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	log := Logger("test2")

	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	log.Info("after switch", "key", "value")
	assert.Contains(t, buf.String(), "after switch")
}

func TestSetOutputs_SplitsErrors(t *testing.T) {
	infoBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	SetOutputs(infoBuf, errBuf)
	defer SetOutput(os.Stderr)

	log := Logger("split")
	log.Info("normal line")
	log.Warn("warn line")
	log.Error("broken line")

	assert.Contains(t, infoBuf.String(), "normal line")
	assert.Contains(t, infoBuf.String(), "warn line")
	assert.NotContains(t, infoBuf.String(), "broken line")
	assert.Contains(t, errBuf.String(), "broken line")
	assert.NotContains(t, errBuf.String(), "normal line")
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	defer SetOutput(os.Stderr)

	log := Logger("levels")
	SetLevel("levels", slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevelConfig(t *testing.T) {
	cfg := &Config{DefaultLevel: slog.LevelInfo, SubsystemLevels: map[string]slog.Level{}}
	parseLevelConfig(cfg, "client=debug, slots=warn ,error,bogus=nope")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("client"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("slots"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("server"))
	_, ok := cfg.SubsystemLevels["bogus"]
	assert.False(t, ok)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")
	ResetConfig()
	defer ResetConfig()

	cfg := ConfigFromEnv()
	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
}

func TestSetupFiles(t *testing.T) {
	dir := t.TempDir()
	infoPath := filepath.Join(dir, "logs", "info.log")
	errPath := filepath.Join(dir, "logs", "err.log")

	closer, err := SetupFiles(infoPath, errPath)
	require.NoError(t, err)
	defer SetOutput(os.Stderr)

	log := Logger("files")
	log.Info("to info file")
	log.Error("to err file")
	require.NoError(t, closer.Close())

	info, err := os.ReadFile(infoPath)
	require.NoError(t, err)
	errs, err := os.ReadFile(errPath)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(info), "to info file"))
	assert.True(t, strings.Contains(string(errs), "to err file"))
	assert.False(t, strings.Contains(string(info), "to err file"))
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing")
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
