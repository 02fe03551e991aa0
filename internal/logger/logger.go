// Package logger provides a leveled console logger for rustkill.
//
// Output is timestamped and thread-safe. Color is applied to level tags when
// writing to a terminal and suppressed otherwise (or under NO_COLOR).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

const (
	levelDebug int = iota
	levelInfo
	levelWarn
	levelError
)

var (
	debugTag = color.New(color.FgCyan).SprintFunc()
	infoTag  = color.New(color.FgGreen).SprintFunc()
	warnTag  = color.New(color.FgYellow).SprintFunc()
	errorTag = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Logger writes leveled, timestamped messages to a writer.
// A nil writer discards all output.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	level    int
	colorize bool
}

// New creates a Logger writing to w at the given minimum level.
// Valid levels: debug, info, warn, error (case-insensitive); anything else
// defaults to info.
func New(w io.Writer, level string) *Logger {
	return &Logger{
		writer:   w,
		level:    parseLevel(level),
		colorize: isTerminal(w),
	}
}

func parseLevel(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func isTerminal(w io.Writer) bool {
	if w == os.Stdout || w == os.Stderr {
		// color.NoColor already folds in TTY detection and NO_COLOR.
		return !color.NoColor
	}
	return false
}

func (l *Logger) log(level int, tag func(a ...interface{}) string, name, format string, args ...interface{}) {
	if l == nil || l.writer == nil || level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	label := name
	if l.colorize {
		label = tag(name)
	}
	fmt.Fprintf(l.writer, "[%s] %s %s\n", ts, label, fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(levelDebug, debugTag, "DEBUG", format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(levelInfo, infoTag, "INFO", format, args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(levelWarn, warnTag, "WARN", format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(levelError, errorTag, "ERROR", format, args...)
}
