// Package logger configures the process-wide slog logger: a readable
// console handler on stderr plus an optional JSONL sink, with secrets and
// image payloads redacted from both.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	global     atomic.Pointer[slog.Logger]
	isTerminal = term.IsTerminal
	stderr     io.Writer = os.Stderr
)

func init() {
	Init(LevelInfo, nil)
}

// Init replaces the global logger. logFile, when non-nil, receives JSONL
// records; console colors are disabled in that case so both sinks match.
func Init(level slog.Level, logFile io.Writer) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactAttr,
	}
	useColor := logFile == nil && stderrIsTerminal()
	var handler slog.Handler = NewPrettyHandler(stderr, opts, useColor)
	if logFile != nil {
		handler = newMultiHandler(handler, slog.NewJSONHandler(logFile, opts))
	}
	l := slog.New(handler)
	global.Store(l)
	slog.SetDefault(l)
}

func stderrIsTerminal() bool {
	f, ok := stderr.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}

// ParseLevel maps debug/info/warn/error (case-insensitive) to a level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// L returns the current global logger.
func L() *slog.Logger { return global.Load() }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }
