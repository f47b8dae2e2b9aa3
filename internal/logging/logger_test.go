package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Error(errors.New("boom"), "kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "boom", entry["error"])
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "chatty", Output: &buf})

	logger.Info("hello")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestWithContextAddsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "42")
	logger.WithContext(ctx).Info().Msg("scoped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "42", entry["user_id"])
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	component := logger.Component("mongostore")
	component.Info().Msg("connected")
	assert.Contains(t, buf.String(), `"component":"mongostore"`)
}
