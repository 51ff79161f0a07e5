package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger provides structured, leveled logging throughout the application.
// There is no package-level singleton: every component receives its logger
// explicitly, and Named derives a child logger scoped to one collection run.
type Logger struct {
	prefix string
	info   *log.Logger
	warn   *log.Logger
	err    *log.Logger
	debug  *log.Logger
}

// NewLogger creates a new Logger writing to stdout/stderr.
func NewLogger() *Logger {
	flags := 0
	return &Logger{
		info:  log.New(os.Stdout, "", flags),
		warn:  log.New(os.Stdout, "", flags),
		err:   log.New(os.Stderr, "", flags),
		debug: log.New(os.Stdout, "", flags),
	}
}

// SetDebug enables or disables the Debug level; disabled debug lines are
// discarded.
func (l *Logger) SetDebug(enabled bool) {
	if enabled {
		l.debug = log.New(os.Stdout, "", 0)
	} else {
		l.debug = log.New(io.Discard, "", 0)
	}
}

// Named returns a child logger whose lines are tagged with the given scope,
// e.g. a source name or run ID.
func (l *Logger) Named(scope string) *Logger {
	child := *l
	if l.prefix != "" {
		child.prefix = l.prefix + "/" + scope
	} else {
		child.prefix = scope
	}
	return &child
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) tag() string {
	if l.prefix == "" {
		return ""
	}
	return "[" + l.prefix + "] "
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s%s\n", l.timestamp(), l.tag(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s%s\n", l.timestamp(), l.tag(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s%s\n", l.timestamp(), l.tag(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s%s\n", l.timestamp(), l.tag(), format), args...)
}
