// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is the key/value logger every component receives.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// Options configures the zap backend.
type Options struct {
	Level  Level
	Format string // "console" (default) or "json"
	Output string // "stderr" (default), "stdout" or a file path
}

type zapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// New creates a console logger honoring DOMSCOUT_LOG_LEVEL and DOMSCOUT_LOG_FORMAT.
func New() Logger {
	return NewWithOptions(Options{
		Level:  ParseLevel(os.Getenv("DOMSCOUT_LOG_LEVEL")),
		Format: os.Getenv("DOMSCOUT_LOG_FORMAT"),
	})
}

// NewWithLevel creates a console logger with a fixed level.
func NewWithLevel(lvl Level) Logger {
	return NewWithOptions(Options{Level: lvl})
}

// NewSilent only emits errors; used while the terminal UI owns stdout.
func NewSilent() Logger {
	return NewWithLevel(LevelError)
}

// NewNop discards everything.
func NewNop() Logger {
	return &zapLogger{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// NewWithOptions builds the zap config the same way for every entry point.
func NewWithOptions(opts Options) Logger {
	var cfg zap.Config
	if strings.EqualFold(opts.Format, "json") {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.DisableStacktrace = true
	}

	out := opts.Output
	if out == "" {
		out = "stderr"
	}
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}

	level := zap.NewAtomicLevelAt(toZap(opts.Level))
	cfg.Level = level

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logx: falling back to nop logger: %v\n", err)
		return NewNop()
	}

	return &zapLogger{sugar: base.Sugar(), level: level}
}

func (z *zapLogger) With(kv ...any) Logger {
	return &zapLogger{
		sugar: z.sugar.With(normalizeKV(kv)...),
		level: z.level,
	}
}

func (z *zapLogger) SetLevel(lvl Level) {
	z.level.SetLevel(toZap(lvl))
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.sugar.Debugw(msg, normalizeKV(kv)...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.sugar.Infow(msg, normalizeKV(kv)...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.sugar.Warnw(msg, normalizeKV(kv)...) }

func (z *zapLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	kv = append([]any{"error", err.Error()}, kv...)
	z.sugar.Errorw("", normalizeKV(kv)...)
}

// normalizeKV pads odd-length pairs and stringifies keys so zap never
// reports "Ignored key without a value".
func normalizeKV(kv []any) []any {
	if len(kv) == 0 {
		return nil
	}
	out := make([]any, 0, len(kv)+1)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprintf("%v", kv[i])
		var val any = "(missing)"
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		out = append(out, key, val)
	}
	return out
}

func toZap(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel accepts the usual spellings; anything unknown is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}
