package common

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_ReturnsNonNil(t *testing.T) {
	logger := NewLoggerFromConfig(LoggingConfig{Level: "error", Outputs: []string{"console"}})
	if logger == nil {
		t.Fatal("NewLoggerFromConfig returned nil")
	}
}

func TestNewLogger_FluentAPI(t *testing.T) {
	logger := NewLoggerFromConfig(LoggingConfig{Level: "error", Outputs: []string{"console"}})
	logger.Info().Str("key", "value").Msg("test message")
	logger.Warn().Int("count", 42).Msg("warning")
	logger.Error().Err(nil).Msg("error message")
	logger.Debug().Bool("ok", true).Msg("debug")
}

func TestNewLoggerWithOutput_WritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)
	logger.Info().Str("uid", "u-1").Msg("profile created")

	if !strings.Contains(buf.String(), "profile created") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestNewSilentLogger_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	_ = NewLoggerWithOutput("info", &buf)
	buf.Reset()

	silent := NewSilentLogger()
	silent.Info().Str("key", "value").Msg("should be discarded")
	silent.Error().Msg("should be discarded")

	if buf.Len() != 0 {
		t.Errorf("silent logger leaked output: %q", buf.String())
	}
}

func TestWithCorrelationId_ReturnsNewLogger(t *testing.T) {
	logger := NewSilentLogger()
	child := logger.WithCorrelationId("req-123")
	if child == nil || child == logger {
		t.Fatal("expected a distinct child logger")
	}
}
