package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	ctx := WithRequestID(context.Background(), "req-1")
	LoggerFromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "hello", line["msg"])
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { _ = Configure("info") })

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	require.NoError(t, Configure("warn"))
	Logger().Info("dropped")
	assert.Zero(t, buf.Len())

	Logger().Warn("kept")
	assert.NotZero(t, buf.Len())

	assert.Error(t, Configure("loud"))
}
