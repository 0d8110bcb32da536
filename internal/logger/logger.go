package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Level controls which messages are emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the leveled, field-carrying logger used across the module.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	out      = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel sets the global minimum level.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", log.LstdFlags)
}

// WithField returns a logger carrying the given field on every line.
func WithField(key string, value interface{}) Logger {
	return &fieldLogger{fields: map[string]interface{}{key: value}}
}

type fieldLogger struct {
	fields map[string]interface{}
}

func (l *fieldLogger) WithField(key string, value interface{}) Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &fieldLogger{fields: fields}
}

func (l *fieldLogger) Debug(format string, args ...interface{}) {
	l.output(LevelDebug, format, args...)
}

func (l *fieldLogger) Info(format string, args ...interface{}) {
	l.output(LevelInfo, format, args...)
}

func (l *fieldLogger) Warn(format string, args ...interface{}) {
	l.output(LevelWarn, format, args...)
}

func (l *fieldLogger) Error(format string, args ...interface{}) {
	l.output(LevelError, format, args...)
}

func (l *fieldLogger) output(level Level, format string, args ...interface{}) {
	mu.Lock()
	min := minLevel
	dst := out
	mu.Unlock()

	if level < min {
		return
	}

	msg := fmt.Sprintf(format, args...)
	dst.Printf("[%s] %s%s", level, msg, l.fieldString())
}

func (l *fieldLogger) fieldString() string {
	if len(l.fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
	}
	return b.String()
}
