package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Init initializes the global logger. Entries at error level and above go to
// stderr, everything else to stdout. If logFilePath is non-empty every entry
// is also appended to that file. level can be "debug", "info", "warn", "error".
func Init(logFilePath, level string) (func(), error) {
	return InitWithWriters(os.Stdout, os.Stderr, logFilePath, level)
}

// InitWithWriters is Init with explicit stdout/stderr sinks (tests).
func InitWithWriters(stdout, stderr io.Writer, logFilePath, level string) (func(), error) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	var f *os.File
	var sink zerolog.LevelWriter = splitWriter{out: stdout, err: stderr}
	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, err
		}
		sink = zerolog.MultiLevelWriter(sink, f)
	}
	Log = zerolog.New(sink).With().Timestamp().Logger()
	return func() {
		if f != nil {
			_ = f.Close()
		}
	}, nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// splitWriter routes error and fatal entries to err and the rest to out.
type splitWriter struct {
	out io.Writer
	err io.Writer
}

func (w splitWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

func (w splitWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l >= zerolog.ErrorLevel && l != zerolog.NoLevel {
		return w.err.Write(p)
	}
	return w.out.Write(p)
}

// Log is the package-global logger configured by Init
var Log = zerolog.New(splitWriter{out: os.Stdout, err: os.Stderr}).With().Timestamp().Logger()

// Get returns a pointer to the package-global logger
func Get() *zerolog.Logger {
	return &Log
}
