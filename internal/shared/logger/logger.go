package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// Level controls which entries a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ErrorObject represents the error format.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// Entry represents the structured log format written as one JSON line.
type Entry struct {
	Timestamp string       `json:"timestamp"`
	Level     string       `json:"level"`
	Service   string       `json:"service"`
	Action    string       `json:"action"`
	Message   string       `json:"message"`
	Hostname  string       `json:"hostname"`
	RequestID string       `json:"request_id,omitempty"`
	Error     *ErrorObject `json:"error,omitempty"`
	Details   any          `json:"details,omitempty"`
}

// Logger is a structured JSON logger. The writer is injectable so tests can
// capture output; emission is serialized to keep lines whole.
type Logger struct {
	service  string
	hostname string
	min      Level

	mu  sync.Mutex
	out io.Writer
}

// NewLogger creates a logger for the named service writing to stdout at
// info level.
func NewLogger(service string) *Logger {
	return NewLoggerWithWriter(service, os.Stdout, LevelInfo)
}

// NewLoggerWithWriter creates a logger with an explicit sink and minimum
// level.
func NewLoggerWithWriter(service string, out io.Writer, min Level) *Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Logger{
		service:  service,
		hostname: hostname,
		min:      min,
		out:      out,
	}
}

// Unexported context key type to avoid collisions.
type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id across service hops.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// requestIDFrom returns the request id saved in the context, if any.
func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// emit marshals the entry and writes it as a single line.
func (logger *Logger) emit(level Level, entry Entry) {
	if level < logger.min {
		return
	}

	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log marshal failed: %v\n", err)
		return
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	fmt.Fprintln(logger.out, string(b))
}

func (logger *Logger) entry(ctx context.Context, level, action, msg string) Entry {
	return Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Service:   logger.service,
		Action:    action,
		Message:   msg,
		Hostname:  logger.hostname,
		RequestID: requestIDFrom(ctx),
	}
}

func (logger *Logger) Debug(ctx context.Context, action, msg string, details any) {
	e := logger.entry(ctx, "DEBUG", action, msg)
	e.Details = details
	logger.emit(LevelDebug, e)
}

func (logger *Logger) Info(ctx context.Context, action, msg string, details any) {
	e := logger.entry(ctx, "INFO", action, msg)
	e.Details = details
	logger.emit(LevelInfo, e)
}

func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	e := logger.entry(ctx, "ERROR", action, msg)
	if err != nil {
		e.Error = &ErrorObject{Msg: err.Error(), Stack: string(debug.Stack())}
	}
	logger.emit(LevelError, e)
}
