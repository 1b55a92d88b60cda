// Package log is the structured logger shared by ceremony sessions and the
// command line tool. Every line carries the module that wrote it and,
// inside a session, the participant index.
//
// Secrets must never reach a log line. As a backstop, any value with a
// Zeroize method (scalars, nonces, participant state) is written as
// "[redacted]".
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Redacted replaces secret values in log lines.
const Redacted = "[redacted]"

// callerDepth skips the go-kit wrappers plus Logger's method and emit.
const callerDepth = 5

var levelers = [...]func(log.Logger) log.Logger{
	LevelDebug: level.Debug,
	LevelInfo:  level.Info,
	LevelWarn:  level.Warn,
	LevelError: level.Error,
}

// Logger writes leveled key/value lines for one module.
type Logger struct {
	logger log.Logger
	level  Level
	module string
}

// NewDefaultLogger returns a JSON logger at Info level writing to stderr.
func NewDefaultLogger(module string) *Logger {
	logger, err := NewLogger(module, os.Stderr, FmtJSON, LevelInfo)
	if err != nil {
		panic(err)
	}
	return logger
}

// NewNopLogger returns a logger that discards everything. Sessions use it
// when no logger is configured.
func NewNopLogger() *Logger {
	return &Logger{logger: log.NewNopLogger(), level: LevelError, module: "nop"}
}

// NewLogger returns a logger for module writing lines of format to w and
// dropping everything below lvl.
func NewLogger(module string, w io.Writer, format Format, lvl Level) (*Logger, error) {
	sw := log.NewSyncWriter(w)
	var base log.Logger
	switch format {
	case FmtLogfmt:
		base = log.NewLogfmtLogger(sw)
	case FmtJSON:
		base = log.NewJSONLogger(sw)
	default:
		return nil, fmt.Errorf("log: unsupported log format: %v", format)
	}
	base = log.WithPrefix(base, "ts", log.DefaultTimestampUTC, "caller", log.Caller(callerDepth))
	return &Logger{logger: base, level: lvl, module: module}, nil
}

func (l *Logger) emit(lvl Level, msg string, keyvals []interface{}) {
	if lvl < l.level {
		return
	}
	line := make([]interface{}, 0, len(keyvals)+4)
	line = append(line, "module", l.module, "msg", msg)
	line = append(line, redact(keyvals)...)
	_ = levelers[lvl](l.logger).Log(line...)
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.emit(LevelDebug, msg, keyvals) }

// Info logs at Info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) { l.emit(LevelInfo, msg, keyvals) }

// Warn logs at Warn level. Sessions use it for exclusions and dropped
// messages.
func (l *Logger) Warn(msg string, keyvals ...interface{}) { l.emit(LevelWarn, msg, keyvals) }

// Error logs at Error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.emit(LevelError, msg, keyvals) }

// With returns a logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{logger: log.With(l.logger, redact(keyvals)...), level: l.level, module: l.module}
}

// WithParticipant tags every line with the participant index, under key
// role ("participant", "signer").
func (l *Logger) WithParticipant(role string, index uint32) *Logger {
	return l.With(role, index)
}

// WithModule returns a logger writing under module.
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{logger: l.logger, level: l.level, module: module}
}

// Level returns the minimum level written.
func (l *Logger) Level() Level {
	return l.level
}

type zeroizer interface {
	Zeroize()
}

func redact(keyvals []interface{}) []interface{} {
	out := keyvals
	for i := 1; i < len(keyvals); i += 2 {
		if _, secret := keyvals[i].(zeroizer); !secret {
			continue
		}
		if &out[0] == &keyvals[0] {
			out = append([]interface{}(nil), keyvals...)
		}
		out[i] = Redacted
	}
	return out
}
