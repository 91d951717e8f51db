package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/topi314/tint"
)

// Package-level leveled logger on top of log/slog. Text output goes through
// tint; set format "json" for machine-readable logs.

// LevelFatal sits above slog.LevelError.
const LevelFatal = slog.Level(12)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	format = "text"
	out    io.Writer = os.Stdout
	base   *slog.Logger
)

func init() {
	level.Set(slog.LevelInfo)
	rebuild()
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	level.Set(parseLevel(l))
}

// Configure sets level and output format ("text" or "json") and installs the
// logger as the slog default.
func Configure(l, f string) {
	Init(l)
	mu.Lock()
	format = strings.ToLower(strings.TrimSpace(f))
	mu.Unlock()
	rebuild()
	slog.SetDefault(Logger())
}

// Logger returns the underlying structured logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Err is the attribute used for errors in structured calls.
func Err(err error) slog.Attr { return tint.Err(err) }

func setOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
	rebuild()
}

func rebuild() {
	mu.Lock()
	defer mu.Unlock()
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level, ReplaceAttr: renameFatal})
	} else {
		h = tint.NewHandler(out, &tint.Options{
			Level:       level,
			TimeFormat:  time.RFC3339,
			NoColor:     out != os.Stdout,
			ReplaceAttr: renameFatal,
		})
	}
	base = slog.New(h)
}

func renameFatal(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lv, ok := a.Value.Any().(slog.Level); ok && lv >= LevelFatal {
			return slog.String(slog.LevelKey, "FATAL")
		}
	}
	return a
}

func parseLevel(l string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "fatal":
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

func logf(lv slog.Level, format string, v ...any) {
	Logger().Log(context.Background(), lv, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) { logf(slog.LevelDebug, format, v...) }
func Infof(format string, v ...any)  { logf(slog.LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { logf(slog.LevelWarn, format, v...) }
func Errorf(format string, v ...any) { logf(slog.LevelError, format, v...) }

func Fatalf(format string, v ...any) {
	logf(LevelFatal, format, v...)
	os.Exit(1)
}

// Println kept for brief messages (maps to Info)
func Println(v ...any) {
	logf(slog.LevelInfo, "%s", strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// LevelString returns the current level as text.
func LevelString() string {
	switch lv := level.Level(); {
	case lv >= LevelFatal:
		return "fatal"
	case lv >= slog.LevelError:
		return "error"
	case lv >= slog.LevelWarn:
		return "warn"
	case lv >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
