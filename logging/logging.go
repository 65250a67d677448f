// Package logging builds the zap logger shared by every component.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string // debug, info, warn, error

	// File, when set, receives a rotated copy of every entry.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console defaults to stderr.
	Console io.Writer
}

// New returns a JSON logger with ISO8601 timestamps.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(console), level)}

	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(rot), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
