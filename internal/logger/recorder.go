package logger

import (
	"slices"
	"sync"

	"github.com/no0law1/kafka-prioritization/types"
)

// Entry is one captured log call.
type Entry struct {
	Level  string
	Msg    string
	Fields []any
}

// Field returns the value logged under key, or nil.
func (e Entry) Field(key string) any {
	for i := 0; i+1 < len(e.Fields); i += 2 {
		if k, ok := e.Fields[i].(string); ok && k == key {
			return e.Fields[i+1]
		}
	}

	return nil
}

// Recorder is a types.Logger that keeps every entry in memory so tests can
// assert on what was logged.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ types.Logger = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(msg string, keysAndValues ...any) { r.add("DEBUG", msg, keysAndValues) }
func (r *Recorder) Info(msg string, keysAndValues ...any)  { r.add("INFO", msg, keysAndValues) }
func (r *Recorder) Warn(msg string, keysAndValues ...any)  { r.add("WARN", msg, keysAndValues) }
func (r *Recorder) Error(msg string, keysAndValues ...any) { r.add("ERROR", msg, keysAndValues) }

// Fatal records the entry at FATAL level. It does not exit.
func (r *Recorder) Fatal(msg string, keysAndValues ...any) { r.add("FATAL", msg, keysAndValues) }

// Entries returns a snapshot of captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.entries)
}

// Count returns how many entries were logged at level with message msg.
func (r *Recorder) Count(level, msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Level == level && e.Msg == msg {
			n++
		}
	}

	return n
}

func (r *Recorder) add(level, msg string, keysAndValues []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: slices.Clone(keysAndValues)})
}
