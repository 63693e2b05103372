// Package logger provides loggers for tests.
package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/no0law1/kafka-prioritization/types"
)

// TestLogger implements types.Logger using testing.TB for output.
//
// Entries written after the test finished are dropped: tier workers may log
// while draining after the test function returned, and testing.T panics on
// late Logf calls.
type TestLogger struct {
	t    testing.TB
	mu   sync.Mutex
	done bool
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a new test logger that writes to t.
//
// Parameters:
//   - t: The test or benchmark to write logs to
//
// Returns:
//   - *TestLogger: A new logger instance that uses t.Logf()
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    logger := NewTest(t)
//	    logger.Info("test started", "id", 123)
//	}
func NewTest(t testing.TB) *TestLogger {
	l := &TestLogger{t: t}
	t.Cleanup(func() {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
	})

	return l
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.logf("DEBUG", msg, keysAndValues)
}

// Info logs an info-level message with optional key-value pairs.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.logf("INFO", msg, keysAndValues)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.logf("WARN", msg, keysAndValues)
}

// Error logs an error-level message with optional key-value pairs.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.logf("ERROR", msg, keysAndValues)
}

// Fatal logs a fatal-level message and marks the test as failed.
//
// Fatal is usually called from worker goroutines, where t.FailNow is not
// allowed, so the test keeps running.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.t.Errorf("FATAL: %s %s", msg, formatKeyValues(keysAndValues))
}

func (l *TestLogger) logf(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.t.Logf("%s: %s %s", level, msg, formatKeyValues(keysAndValues))
}

// formatKeyValues formats key-value pairs for logging.
func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v=%v ", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, "%v=<missing> ", keysAndValues[i])
		}
	}

	return strings.TrimSuffix(sb.String(), " ")
}
