package internal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// logSink is the destination shared by every logger: stderr, plus a file
// once a path has been set.
type logSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	w      io.Writer
	opened bool
}

var sink = &logSink{w: os.Stderr}

// writer opens the log file on first use. A file that cannot be created
// leaves logging on stderr only.
func (s *logSink) writer() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return s.w
	}
	s.opened = true

	if s.path == "" {
		return s.w
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return s.w
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return s.w
	}
	s.file = f
	s.w = io.MultiWriter(os.Stderr, f)
	return s.w
}

func (s *logSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		s.file.Close()
		s.file = nil
		s.w = os.Stderr
	}
}

// leveledLogger is a lazily built JSON logger with an adjustable level.
type leveledLogger struct {
	once   sync.Once
	level  slog.LevelVar
	logger *slog.Logger
	start  slog.Level
	attrs  []any
}

func (l *leveledLogger) get() *slog.Logger {
	l.once.Do(func() {
		l.level.Set(l.start)
		l.logger = NewJSONLogger(sink.writer(), &l.level).With(l.attrs...)
	})
	return l.logger
}

func (l *leveledLogger) setLevel(level slog.Level) {
	l.get()
	l.level.Set(level)
}

var (
	appLogger    = &leveledLogger{start: slog.LevelInfo}
	engineLogger = &leveledLogger{start: slog.LevelWarn, attrs: []any{"component", "uiflow"}}
)

// SetLogPath sets the full path for the log file, including filename.
// Parent directories are created on first use. Has no effect once a
// logger has been built.
func SetLogPath(path string) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if !sink.opened {
		sink.path = path
	}
}

// NewJSONLogger builds a JSON logger writing to w at the given level.
func NewJSONLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// GetLogger returns the application logger.
func GetLogger() *slog.Logger {
	return appLogger.get()
}

// GetInternalLogger returns the logger used by the flow engine itself.
// It defaults to warnings so navigation noise stays out of app logs.
func GetInternalLogger() *slog.Logger {
	return engineLogger.get()
}

func SetLogLevel(level slog.Level) {
	appLogger.setLevel(level)
}

func SetInternalLogLevel(level slog.Level) {
	engineLogger.setLevel(level)
}

// ParseLevel maps a level name ("debug", "WARN", "info+2", "warning")
// to a slog.Level, defaulting to info.
func ParseLevel(rawLevel string) slog.Level {
	raw := strings.TrimSpace(rawLevel)
	if strings.EqualFold(raw, "warning") {
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func SetRawLogLevel(rawLevel string) {
	SetLogLevel(ParseLevel(rawLevel))
}

// CloseLogger closes the log file, if one was opened. Later log lines go
// to stderr only.
func CloseLogger() {
	sink.close()
}
