package logger

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// Logger defines the interface for logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Nop is a Logger that discards everything.
type Nop struct{}

func NewNop() *Nop { return &Nop{} }

func (*Nop) Debug(string, ...Field) {}
func (*Nop) Info(string, ...Field)  {}
func (*Nop) Warn(string, ...Field)  {}
func (*Nop) Error(string, ...Field) {}
