package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON production logger. When file is set, records go to stderr and the file.
func New(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if path := strings.TrimSpace(file); path != "" {
		cfg.OutputPaths = []string{"stderr", path}
		cfg.ErrorOutputPaths = []string{"stderr", path}
	}

	return cfg.Build()
}

func ParseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
