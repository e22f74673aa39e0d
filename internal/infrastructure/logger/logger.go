package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/LavaJover/shvark-genealogy-service/internal/config"
)

// NewLogger builds the process logger from log_config. Unknown levels fall
// back to info and unknown formats to text.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.LogOutput, "stderr") {
		out = os.Stderr
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}
