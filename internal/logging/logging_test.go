package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/quote-vat/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lvl, err := logging.ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, lvl)
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("info", logging.FormatJSON, &buf)

	logger.Debug("hidden")
	logger.Info("classified", "vat_class", "P2")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "classified", entry["msg"])
	assert.Equal(t, "P2", entry["vat_class"])
}

func TestNew_TextWithInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("loud", logging.FormatText, &buf)

	assert.Contains(t, buf.String(), "invalid log level")
	logger.Info("still logging")
	assert.Contains(t, buf.String(), "still logging")
}

func TestDiscard(t *testing.T) {
	logging.Discard().Error("nothing happens")
}
