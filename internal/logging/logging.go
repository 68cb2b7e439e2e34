// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// New returns a console logger writing to stderr at level ("debug", "info", "warn", "error").
// An empty level means "warn" so normal CLI output stays clean.
func New(level string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "warn"
	}
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
