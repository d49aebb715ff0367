package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, slog.LevelInfo, FormatJSON))

	log.Debug("hidden")
	log.With("name", "deployer").Info("code uploaded", "code_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "code uploaded", line["msg"])
	assert.Equal(t, "deployer", line["name"])
	assert.InDelta(t, 7, line["code_id"], 0)
}

func TestNewHandlerText(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, slog.LevelDebug, "TEXT"))

	log.Debug("polling", "attempt", 2)

	assert.Contains(t, buf.String(), "msg=polling")
	assert.Contains(t, buf.String(), "attempt=2")
}

func TestInitializeWritesToStderr(t *testing.T) {
	previous := slog.Default()
	stdout, stderr := os.Stdout, os.Stderr
	t.Cleanup(func() {
		slog.SetDefault(previous)
		os.Stdout, os.Stderr = stdout, stderr
	})

	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout, os.Stderr = outW, errW

	Initialize(slog.LevelInfo, FormatJSON)
	Named("deployment_orchestrator").Info("starting deployment")

	require.NoError(t, outW.Close())
	require.NoError(t, errW.Close())

	written, err := io.ReadAll(outR)
	require.NoError(t, err)
	logged, err := io.ReadAll(errR)
	require.NoError(t, err)

	assert.Empty(t, written)
	assert.Contains(t, string(logged), `"msg":"starting deployment"`)
}
