package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for the duration of fn
// and returns everything that was written.
func captureOutput(t *testing.T, level, format string, fn func()) string {
	t.Helper()

	var buf bytes.Buffer
	InitWithWriter(&buf, level, format, false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	fn()
	return buf.String()
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestLevelFiltering(t *testing.T) {
	out := captureOutput(t, "WARN", "text", func() {
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")
	})

	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestStructuredFields(t *testing.T) {
	out := captureOutput(t, "INFO", "text", func() {
		Info("chunk flushed", KeyBucket, "fs", KeyChunk, 3)
	})

	assert.Contains(t, out, "chunk flushed")
	assert.Contains(t, out, "bucket=fs")
	assert.Contains(t, out, "chunk=3")
}

func TestJSONFormat(t *testing.T) {
	out := captureOutput(t, "INFO", "json", func() {
		Info("upload complete", KeyFilename, "report.pdf", KeyLength, int64(1024))
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &record))

	assert.Equal(t, "upload complete", record["msg"])
	assert.Equal(t, "report.pdf", record["filename"])
	assert.Equal(t, float64(1024), record["length"])
}

func TestContextFieldInjection(t *testing.T) {
	lc := NewLogContext("fs", "upload")
	lc.TraceID = "abc123"
	ctx := WithContext(context.Background(), lc)

	out := captureOutput(t, "INFO", "text", func() {
		InfoCtx(ctx, "stream opened", KeyFilename, "data.bin")
	})

	assert.Contains(t, out, "trace_id=abc123")
	assert.Contains(t, out, "operation=upload")
	assert.Contains(t, out, "bucket=fs")
	assert.Contains(t, out, "filename=data.bin")
}

func TestContextWithoutLogContext(t *testing.T) {
	out := captureOutput(t, "INFO", "text", func() {
		InfoCtx(context.Background(), "plain message")
	})

	assert.Contains(t, out, "plain message")
	assert.NotContains(t, out, "trace_id")
}

func TestFromContextNil(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	assert.Nil(t, FromContext(nil)) //nolint:staticcheck
}

func TestLogContextClone(t *testing.T) {
	lc := NewLogContext("fs", "download")
	clone := lc.WithOperation("delete")

	assert.Equal(t, "download", lc.Operation)
	assert.Equal(t, "delete", clone.Operation)
	assert.Equal(t, "fs", clone.Bucket)

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
}

func TestSetLevelInvalid(t *testing.T) {
	out := captureOutput(t, "INFO", "text", func() {
		SetLevel("BOGUS") // should be ignored
		Info("still info")
	})

	assert.Contains(t, out, "still info")
}

func TestFieldConstructors(t *testing.T) {
	attr := FileID(42)
	assert.Equal(t, KeyFileID, attr.Key)
	assert.Equal(t, "42", attr.Value.String())

	assert.Equal(t, KeyError, Err(assert.AnError).Key)
	assert.True(t, Err(nil).Equal(Err(nil)))
}
