// Package logging builds the application's structured logger.
package logging

import (
	"io"

	"github.com/phuslu/log"

	"newsresearch/internal/config"
)

// New returns a logger writing JSON lines to the configured file.
// The terminal belongs to the TUI, so nothing is written to stderr.
func New(cfg config.LogConfig) *log.Logger {
	return &log.Logger{
		Level:  log.ParseLevel(cfg.Level),
		Caller: 1,
		Writer: &log.FileWriter{
			Filename:   cfg.File,
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 3,
		},
	}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
