// Package logger is the kiosk's structured logger. Every line carries the
// file:line it came from, so a punch that went wrong on a lab kiosk can be
// traced from the operator's log dump alone. Components take a Named child
// ("punch", "session", "gateway") rather than the root logger.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// callerSkipFrames skips getCaller, write and the level method.
const callerSkipFrames = 3

// Logger is what kiosk components log through. All methods take the
// request or session context so handlers can pick up request ids.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	// Fatal logs at error level and exits. Only cmd/ mains use it.
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field is one structured attribute, e.g. employee_id or position.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Time(key string, val time.Time) Field  { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }

// Error wraps err under the "error" key.
func Error(err error) Field { return Field{Key: "error", Value: err} }

type slogLogger struct {
	Logger *slog.Logger
}

// Named groups the child's attributes under name.
func (l *slogLogger) Named(name string) Logger {
	return &slogLogger{Logger: l.Logger.WithGroup(name)}
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, slog.LevelError, msg, fields)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, slog.LevelDebug, msg, fields)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, slog.LevelError, msg, fields)
	os.Exit(1)
}

func (l *slogLogger) write(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if !l.Logger.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+1)
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	attrs = append(attrs, slog.String("source", getCaller()))
	l.Logger.LogAttrs(ctx, level, msg, attrs...)
}

var (
	global   Logger
	levelVar slog.LevelVar
)

// Init installs a text logger on stdout at info level.
func Init() error {
	return InitWithHandler(nil)
}

// InitWithHandler installs a logger writing through h, e.g. a JSON
// handler when the kiosk runs under a log collector. A nil h means the
// stdout text handler. The level resets to info.
func InitWithHandler(h slog.Handler) error {
	levelVar.Set(slog.LevelInfo)
	if h == nil {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &levelVar})
	}
	global = &slogLogger{Logger: slog.New(h)}
	return nil
}

// Level is the shared level. The HTTP request logger is built on it so
// log_level applies to access lines too.
func Level() slog.Leveler { return &levelVar }

// Slog returns the slog.Logger behind the global logger.
func Slog() *slog.Logger {
	if l, ok := Get().(*slogLogger); ok {
		return l.Logger
	}
	return slog.Default()
}

// getCaller renders the logging call site as path:line, relative to the
// working directory when possible.
func getCaller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", relativeSource(file), line)
}

func relativeSource(file string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Base(file)
	}
	rel, err := filepath.Rel(cwd, file)
	if err != nil {
		return filepath.Base(file)
	}
	return rel
}

// Get returns the global logger. It panics before Init so a kiosk never
// runs with logging silently unconfigured.
func Get() Logger {
	if global == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named is Get().Named(name).
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync is a no-op kept for deferred shutdown calls; slog does not buffer.
func Sync() error {
	return nil
}

// SetLevel changes the level of every logger sharing the global handler.
func SetLevel(level slog.Level) { levelVar.Set(level) }

// SetLevelString applies a log_level config value: debug, info,
// warn/warning or error, case-insensitive. Empty means info.
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "", "info":
		SetLevel(slog.LevelInfo)
	case "warn", "warning":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
