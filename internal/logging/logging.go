package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Provides a small structured logger interface for the application.
// Arguments after msg are alternating key/value pairs.

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

// ZapLogger adapts a zap logger to Logger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

func New(z *zap.Logger) ZapLogger {
	return ZapLogger{s: z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return New(zap.NewNop())
}

func (l ZapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l ZapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l ZapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l ZapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l ZapLogger) With(kv ...any) Logger {
	return ZapLogger{s: l.s.With(kv...)}
}

// Sync flushes buffered entries.
func (l ZapLogger) Sync() error {
	return l.s.Sync()
}

// Build creates a zap logger writing to stderr.
// level is a zap level name ("debug", "info", ...), format is "json" or "console".
func Build(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	var enc zapcore.EncoderConfig
	switch format {
	case "json":
		enc = zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console", "":
		format = "console"
		enc = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    enc,
	}
	return cfg.Build()
}

// NewConsole creates a console logger writing to w, for interactive commands.
func NewConsole(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}
