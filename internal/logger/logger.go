// Package logger provides a lightweight, centralized logging facility
// with configurable verbosity levels, backed by zap.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Output goes to stderr by default, keeping stdout free for reports. Init
// can redirect it to a rotating file (lumberjack) or any io.Writer.
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("valuing %d contracts", n)
//	logger.Debugf("spot=%f vol=%f", spot, vol)
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// traceLevel sits one step below zap's DebugLevel.
const traceLevel = zapcore.DebugLevel - 1

func (l Level) zapLevel() zapcore.Level {
	switch {
	case l <= Error:
		return zapcore.ErrorLevel
	case l == Info:
		return zapcore.InfoLevel
	case l == Debug:
		return zapcore.DebugLevel
	}
	return traceLevel
}

// Options configures the output sink.
type Options struct {
	Verbosity int

	// File, when set, sends output to a lumberjack-rotated file instead of
	// stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Writer overrides both stderr and File. Used by tests.
	Writer io.Writer
}

var (
	mu    sync.RWMutex
	atom  = zap.NewAtomicLevelAt(Info.zapLevel())
	sugar = build(zapcore.Lock(os.Stderr))
	sink  io.Closer
)

func build(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		CallerKey:      "C",
		MessageKey:     "M",
		EncodeLevel:    encodeLevel,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,

		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, ws, atom)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).Sugar()
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == traceLevel {
		enc.AppendString("[TRACE]")
		return
	}
	enc.AppendString("[" + l.CapitalString() + "]")
}

// Init replaces the output sink and sets the verbosity. It is safe to call
// more than once; a previously opened log file is closed.
func Init(o Options) {
	var ws zapcore.WriteSyncer
	var closer io.Closer
	switch {
	case o.Writer != nil:
		ws = zapcore.AddSync(o.Writer)
	case o.File != "":
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
		}
		ws, closer = zapcore.AddSync(lj), lj
	default:
		ws = zapcore.Lock(os.Stderr)
	}

	mu.Lock()
	_ = sugar.Sync()
	if sink != nil {
		_ = sink.Close()
	}
	sugar, sink = build(ws), closer
	mu.Unlock()

	SetVerbosity(o.Verbosity)
}

// Sync flushes buffered output. Call it before the process exits.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return sugar.Sync()
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during application startup
// (e.g. after loading configuration).
func SetVerbosity(v int) {
	atom.SetLevel(Level(v).zapLevel())
}

// Enabled reports whether messages at l are currently emitted. Use it to
// skip building expensive log arguments.
func Enabled(l Level) bool {
	return atom.Enabled(l.zapLevel())
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Logf(l.zapLevel(), format, args...)
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	logf(Error, format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	logf(Info, format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, format, args...)
}
