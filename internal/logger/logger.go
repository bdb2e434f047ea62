package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Level controls which messages are emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// ParseLevel maps a config value such as "debug" or "warn" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "verbose":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "", "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelError + 4
}

// Logger is the structured logger used across pantry. Key/value pairs follow
// the message, e.g. Info("migration applied", "name", name).
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, keyvals ...interface{}) { s.l.Debug(msg, keyvals...) }
func (s *slogLogger) Info(msg string, keyvals ...interface{})  { s.l.Info(msg, keyvals...) }
func (s *slogLogger) Warn(msg string, keyvals ...interface{})  { s.l.Warn(msg, keyvals...) }
func (s *slogLogger) Error(msg string, keyvals ...interface{}) { s.l.Error(msg, keyvals...) }

func (s *slogLogger) WithField(key string, value interface{}) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

func (s *slogLogger) WithFields(fields map[string]interface{}) Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &slogLogger{l: s.l.With(args...)}
}

var (
	mu       sync.RWMutex
	level              = new(slog.LevelVar)
	output   io.Writer = os.Stderr
	root     Logger
	progress *progressState
)

func init() {
	level.Set(LevelWarn.slogLevel())
	root = newRoot(output)
}

func newRoot(w io.Writer) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

// SetLevel changes the global level. Loggers already derived from the root
// pick up the change.
func SetLevel(l Level) {
	level.Set(l.slogLevel())
}

// SetOutput redirects all subsequently created loggers to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	root = newRoot(w)
}

// Default returns the root logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

func WithField(key string, value interface{}) Logger {
	return Default().WithField(key, value)
}

func WithFields(fields map[string]interface{}) Logger {
	return Default().WithFields(fields)
}

func Debug(msg string, keyvals ...interface{}) { Default().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { Default().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { Default().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { Default().Error(msg, keyvals...) }

type progressState struct {
	task    string
	started time.Time
}

// StartProgress prints a task header for long running CLI work.
func StartProgress(task string) {
	mu.Lock()
	defer mu.Unlock()
	progress = &progressState{task: task, started: time.Now()}
	fmt.Fprintf(output, "%s...\n", task)
}

// UpdateProgress prints an intermediate step of the current task.
func UpdateProgress(step string) {
	mu.RLock()
	defer mu.RUnlock()
	if progress == nil {
		return
	}
	fmt.Fprintf(output, "  %s\n", step)
}

// EndProgress closes the current task.
func EndProgress(ok bool) {
	mu.Lock()
	defer mu.Unlock()
	if progress == nil {
		return
	}
	status := "done"
	if !ok {
		status = "failed"
	}
	fmt.Fprintf(output, "%s %s (%s)\n", progress.task, status, time.Since(progress.started).Round(time.Millisecond))
	progress = nil
}
