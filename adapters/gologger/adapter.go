package gologger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// ParseLevel maps trace/debug/info/warn/error to slog levels. Unknown values
// fall back to info. Trace is reported below debug.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// SlogLogger satisfies glog.Logger on top of a slog handler.
type SlogLogger struct {
	base *slog.Logger
	ctx  context.Context
}

func NewSlogLogger(base *slog.Logger) *SlogLogger {
	if base == nil {
		base = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SlogLogger{base: base, ctx: context.Background()}
}

// NewJSONLogger writes JSON lines to w (stderr when nil) at the given level.
func NewJSONLogger(w io.Writer, level string) *SlogLogger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return NewSlogLogger(slog.New(handler))
}

func (l *SlogLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Fatal logs at fatal level. It does not exit; the caller owns shutdown.
func (l *SlogLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args...) }

func (l *SlogLogger) WithContext(ctx context.Context) glog.Logger {
	if l == nil {
		return glog.Nop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &SlogLogger{base: l.base, ctx: ctx}
}

// With returns a child logger carrying the given key/value pairs.
func (l *SlogLogger) With(args ...any) *SlogLogger {
	if l == nil {
		return NewSlogLogger(nil)
	}
	return &SlogLogger{base: l.base.With(args...), ctx: l.ctx}
}

func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	if l == nil || l.base == nil {
		return
	}
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	l.base.Log(ctx, level, msg, args...)
}

// Provider hands out named children of a root logger. The name is attached
// as the "logger" attribute.
type Provider struct {
	root *SlogLogger
}

func NewProvider(root *SlogLogger) *Provider {
	if root == nil {
		root = NewSlogLogger(nil)
	}
	return &Provider{root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.root == nil {
		return glog.Nop()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return p.root
	}
	return p.root.With("logger", name)
}

var (
	_ glog.Logger         = (*SlogLogger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)
