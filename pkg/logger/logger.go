package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	fieldService   = "service"
	fieldRequestID = "request_id"
	fieldUserID    = "user_id"
	fieldStack     = "stack"
)

// Options configures the structured logger. Console switches the JSON encoder
// for zerolog's human readable writer.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Console     bool
	Output      io.Writer
}

// Logger carries request scoped fields through context.Context so handlers and
// services log with the same request_id/user_id pair.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type scopeKey struct{}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	root := zerolog.New(writerFor(opts)).
		Level(level).
		With().
		Timestamp().
		Str(fieldService, opts.ServiceName).
		Logger()

	return &Logger{root: root, warnStack: opts.WarnStack}
}

func writerFor(opts Options) io.Writer {
	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	if !opts.Console {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

// Nop discards every entry.
func Nop() *Logger {
	return &Logger{root: zerolog.Nop()}
}

// ParseLevel maps a config string onto a zerolog level, falling back to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) scoped(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if scoped, ok := ctx.Value(scopeKey{}).(*zerolog.Logger); ok {
			return scoped
		}
	}
	return &l.root
}

func (l *Logger) extend(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	next := build(l.scoped(ctx).With()).Logger()
	return context.WithValue(ctx, scopeKey{}, &next)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str(fieldRequestID, requestID)
	})
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str(fieldUserID, userID)
	})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.scoped(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.scoped(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.scoped(ctx).Warn()
	if l.warnStack {
		event.Str(fieldStack, stackTrace())
	}
	event.Msg(msg)
}

// Error always records the goroutine stack alongside err.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.scoped(ctx).Error().
		Err(err).
		Str(fieldStack, stackTrace()).
		Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
