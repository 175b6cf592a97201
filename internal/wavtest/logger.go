package wavtest

import (
	"fmt"
	"strings"
	"sync"
)

// Logger is a pion/logging LeveledLogger that records every message as
// "LEVEL message".
type Logger struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns the recorded messages.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.lines...)
}

// Contains reports whether any message at level contains substr.
func (l *Logger) Contains(level, substr string) bool {
	for _, line := range l.Lines() {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, substr) {
			return true
		}
	}

	return false
}

func (l *Logger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = append(l.lines, level+" "+msg)
}

func (l *Logger) Trace(msg string) {
	l.record("TRACE", msg)
}

func (l *Logger) Tracef(format string, args ...interface{}) {
	l.record("TRACE", fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(msg string) {
	l.record("DEBUG", msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.record("DEBUG", fmt.Sprintf(format, args...))
}

func (l *Logger) Info(msg string) {
	l.record("INFO", msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.record("INFO", fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string) {
	l.record("WARN", msg)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.record("WARN", fmt.Sprintf(format, args...))
}

func (l *Logger) Error(msg string) {
	l.record("ERROR", msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.record("ERROR", fmt.Sprintf(format, args...))
}
