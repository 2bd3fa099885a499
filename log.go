// FILE: lixenwraith/iniconf/log.go
package iniconf

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnv selects the level of the default logger (debug, info, warn, error).
const LogLevelEnv = "INICONF_LOG_LEVEL"

// NewLogger builds the logger used when a builder is not given one:
// zap production encoding with ISO8601 timestamps and no caller.
func NewLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	if lvl := os.Getenv(LogLevelEnv); lvl != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(lvl)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(l)
		}
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	l, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "iniconf: failed to initialize logger: %v\n", err)
		return zap.NewNop()
	}
	return l
}

// opLogger wraps the engine logger for one operation. Info and Debug only emit
// when the operation is verbose; warnings and errors always do.
type opLogger struct {
	log     *zap.SugaredLogger
	verbose bool
}

func (l opLogger) Info(msg string, kv ...any) {
	if l.verbose {
		l.log.Infow(msg, kv...)
	}
}

func (l opLogger) Debug(msg string, kv ...any) {
	if l.verbose {
		l.log.Debugw(msg, kv...)
	}
}

func (l opLogger) Warn(msg string, kv ...any) { l.log.Warnw(msg, kv...) }

func (l opLogger) Error(msg string, kv ...any) { l.log.Errorw(msg, kv...) }
