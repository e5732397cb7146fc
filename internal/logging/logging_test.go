package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gi8lino/jiraactions/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.SetupLogger(logging.LogFormatText, false, &buf)
		logger.Info("hello", "key", "value")

		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "key=value")
	})

	t.Run("json format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.SetupLogger(logging.LogFormatJSON, false, &buf)
		logger.Info("hello", "key", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("debug disabled hides debug lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.SetupLogger(logging.LogFormatText, false, &buf)
		logger.Debug("hidden")

		assert.Empty(t, buf.String())
	})

	t.Run("debug enabled shows debug lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.SetupLogger(logging.LogFormatText, true, &buf)
		logger.Debug("visible")

		assert.Contains(t, buf.String(), "visible")
	})
}
