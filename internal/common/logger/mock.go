package logger

import "sync"

// Entry is one message recorded by a MockLogger.
type Entry struct {
	Level  string
	Msg    string
	Fields []Field
}

// MockLogger records log entries in memory so tests can assert on them.
type MockLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (ml *MockLogger) Debug(msg string, fields ...Field) { ml.record("DEBUG", msg, fields) }
func (ml *MockLogger) Info(msg string, fields ...Field)  { ml.record("INFO", msg, fields) }
func (ml *MockLogger) Warn(msg string, fields ...Field)  { ml.record("WARN", msg, fields) }
func (ml *MockLogger) Error(msg string, fields ...Field) { ml.record("ERROR", msg, fields) }

// Entries returns a copy of everything logged so far.
func (ml *MockLogger) Entries() []Entry {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return append([]Entry(nil), ml.entries...)
}

// Count returns the number of entries recorded at the given level.
func (ml *MockLogger) Count(level string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	n := 0
	for _, e := range ml.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (ml *MockLogger) record(level, msg string, fields []Field) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.entries = append(ml.entries, Entry{Level: level, Msg: msg, Fields: fields})
}
