// Package tee mirrors emitted build output into a size-rotated log file.
package tee

import (
	"errors"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a rotating writer for cfg. Zero limits fall back to lumberjack defaults.
func New(cfg Config) (io.WriteCloser, error) {
	if !cfg.Enabled() {
		return nil, errors.New("tee file requires a path")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}, nil
}
