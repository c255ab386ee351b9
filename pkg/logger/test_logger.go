package logger

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a Logger implementation for tests that captures all messages
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   *bytes.Buffer
	zerolog  *zerolog.Logger
	fields   map[string]interface{}
	err      error
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		buffer:   &bytes.Buffer{},
		zerolog:  &nopLogger,
	}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, l.fields) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, l.fields) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, l.fields) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, l.fields) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, l.fields) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, l.mergeFields(fields))
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, l.mergeFields(fields))
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, l.mergeFields(fields))
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, l.mergeFields(fields))
}

// WithField returns a child logger carrying an extra field; captured
// messages still land in the parent's store.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &childLogger{parent: l, fields: l.mergeFields(fields), err: l.err}
}

func (l *TestLogger) WithError(err error) Logger {
	return &childLogger{parent: l, fields: l.fields, err: err}
}

// GetZerolog returns a no-op zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

func (l *TestLogger) mergeFields(additional map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(l.fields)+len(additional))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range additional {
		merged[k] = v
	}
	return merged
}

// log captures a log message
func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   l.err,
	})

	fmt.Fprintf(l.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(l.buffer, " fields=%v", fields)
	}
	fmt.Fprintln(l.buffer)
}

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	var filtered []LogMessage
	for _, msg := range l.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range l.messages {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// childLogger is a TestLogger view carrying fields/err context; all
// messages are recorded on the root TestLogger.
type childLogger struct {
	parent *TestLogger
	fields map[string]interface{}
	err    error
}

func (c *childLogger) capture(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.messages = append(c.parent.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  merged,
		Error:   c.err,
	})
	fmt.Fprintf(c.parent.buffer, "[%s] %s", level, msg)
	if len(merged) > 0 {
		fmt.Fprintf(c.parent.buffer, " fields=%v", merged)
	}
	if c.err != nil {
		fmt.Fprintf(c.parent.buffer, " error=%v", c.err)
	}
	fmt.Fprintln(c.parent.buffer)
}

func (c *childLogger) Debug(msg string) { c.capture("DEBUG", msg, nil) }
func (c *childLogger) Info(msg string)  { c.capture("INFO", msg, nil) }
func (c *childLogger) Warn(msg string)  { c.capture("WARN", msg, nil) }
func (c *childLogger) Error(msg string) { c.capture("ERROR", msg, nil) }
func (c *childLogger) Fatal(msg string) { c.capture("FATAL", msg, nil) }

func (c *childLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	c.capture("DEBUG", msg, fields)
}

func (c *childLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	c.capture("INFO", msg, fields)
}

func (c *childLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	c.capture("WARN", msg, fields)
}

func (c *childLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.capture("ERROR", msg, fields)
}

func (c *childLogger) WithField(key string, value interface{}) Logger {
	fields := make(map[string]interface{}, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields[key] = value
	return &childLogger{parent: c.parent, fields: fields, err: c.err}
}

func (c *childLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &childLogger{parent: c.parent, fields: merged, err: c.err}
}

func (c *childLogger) WithError(err error) Logger {
	return &childLogger{parent: c.parent, fields: c.fields, err: err}
}

func (c *childLogger) GetZerolog() *zerolog.Logger {
	return c.parent.zerolog
}
