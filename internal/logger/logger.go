// Package logger configures the process-wide structured logger shared by
// the REPL, TUI, and MI session trace output.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Log is the process-wide logger; nil until Init runs.
var Log *slog.Logger

var levelsByName = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func levelFromName(name string) slog.Level {
	if lvl, ok := levelsByName[name]; ok {
		return lvl
	}
	return slog.LevelDebug
}

// shortTime replaces slog's default RFC3339 timestamp with a bare
// hour:minute:second, since the log is read by a human watching one run.
func shortTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.String("time", a.Value.Time().Format("15:04:05"))
	}
	return a
}

// Init configures the global logger: a text handler writing to stdout and,
// if logFile is non-empty, appending the same records to that file.
func Init(level string, logFile string) error {
	dest := io.Writer(os.Stdout)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		dest = io.MultiWriter(dest, f)
	}

	handler := slog.NewTextHandler(dest, &slog.HandlerOptions{
		Level:       levelFromName(level),
		ReplaceAttr: shortTime,
	})

	Log = slog.New(handler)
	slog.SetDefault(Log)
	return nil
}

// WithSession returns a child logger tagging every record with the given
// session id, used to tell apart overlapping REPL/TUI runs in one log file.
func WithSession(sessionID string) *slog.Logger {
	return Log.With("session", sessionID)
}

func Debug(msg string, args ...any) { Log.Debug(msg, args...) }
func Info(msg string, args ...any)  { Log.Info(msg, args...) }
func Warn(msg string, args ...any)  { Log.Warn(msg, args...) }
func Error(msg string, args ...any) { Log.Error(msg, args...) }
