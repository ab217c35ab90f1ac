package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity of a log entry
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

type contextKey string

const CorrelationIDKey contextKey = "correlation_id"

// LogEntry is one JSON log line
type LogEntry struct {
	Timestamp     time.Time              `json:"@timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Service       string                 `json:"service,omitempty"`
	Component     string                 `json:"component,omitempty"`
	Action        string                 `json:"action,omitempty"`
	Duration      *int64                 `json:"duration_ms,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
	Caller        string                 `json:"caller,omitempty"`
}

// Logger writes structured JSON entries asynchronously to a set of writers
type Logger struct {
	level   LogLevel
	service string
	writers []io.Writer
	mu      sync.Mutex
	logChan chan LogEntry
	done    chan struct{}
	wg      sync.WaitGroup
	closed  sync.Once
}

// Config for logger initialization
type Config struct {
	Level         LogLevel
	Service       string
	LogFile       string
	EnableConsole bool
	EnableFile    bool
	BufferSize    int
	Output        io.Writer // Extra writer, mostly for tests
}

// NewLogger creates a logger and starts its writer goroutine
func NewLogger(config Config) *Logger {
	bufferSize := config.BufferSize
	if bufferSize < 0 {
		bufferSize = 0
	}

	logger := &Logger{
		level:   config.Level,
		service: config.Service,
		writers: make([]io.Writer, 0),
		logChan: make(chan LogEntry, bufferSize),
		done:    make(chan struct{}),
	}

	if config.EnableConsole {
		logger.writers = append(logger.writers, os.Stdout)
	}

	if config.EnableFile && config.LogFile != "" {
		if file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logger.writers = append(logger.writers, file)
		} else {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", config.LogFile, err)
		}
	}

	if config.Output != nil {
		logger.writers = append(logger.writers, config.Output)
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

// processLogs drains the entry channel until Close, then flushes what is left
func (l *Logger) processLogs() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.logChan:
			l.writeEntry(entry)
		case <-l.done:
			for {
				select {
				case entry := <-l.logChan:
					l.writeEntry(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) writeEntry(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal log entry: %v\n", err)
		return
	}
	data = append(data, '\n')

	// The writer goroutine and direct writes on a full buffer can overlap
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.writers {
		_, _ = writer.Write(data)
	}
}

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// NewCorrelationID generates a new correlation ID
func NewCorrelationID() string {
	return uuid.New().String()
}

// GetCorrelationID retrieves the correlation ID from context
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// Enabled reports whether entries at level would be written
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

// log is the internal logging method. skip is the number of frames between
// the public entry point and the caller being reported.
func (l *Logger) log(ctx context.Context, skip int, level LogLevel, component, action, message string, fields map[string]interface{}, err error, duration *time.Duration) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp:     time.Now().UTC(),
		Level:         level.String(),
		Message:       message,
		CorrelationID: GetCorrelationID(ctx),
		Service:       l.service,
		Component:     component,
		Action:        action,
		Fields:        fields,
	}

	if _, file, line, ok := runtime.Caller(skip); ok {
		entry.Caller = fmt.Sprintf("%s:%d", file, line)
	}

	if err != nil {
		entry.Error = err.Error()
	}

	if duration != nil {
		durationMs := duration.Milliseconds()
		entry.Duration = &durationMs
	}

	select {
	case <-l.done:
		// Closed: write synchronously so late entries are not lost
		l.writeEntry(entry)
		return
	default:
	}

	select {
	case l.logChan <- entry:
	default:
		// Buffer is full, write directly
		l.writeEntry(entry)
	}
}

func firstFields(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, component, action, message string, fields ...map[string]interface{}) {
	l.log(ctx, 2, DEBUG, component, action, message, firstFields(fields), nil, nil)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, component, action, message string, fields ...map[string]interface{}) {
	l.log(ctx, 2, INFO, component, action, message, firstFields(fields), nil, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, component, action, message string, fields ...map[string]interface{}) {
	l.log(ctx, 2, WARN, component, action, message, firstFields(fields), nil, nil)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, component, action, message string, err error, fields ...map[string]interface{}) {
	l.log(ctx, 2, ERROR, component, action, message, firstFields(fields), err, nil)
}

// Fatal logs a fatal message. It does not exit; callers decide.
func (l *Logger) Fatal(ctx context.Context, component, action, message string, err error, fields ...map[string]interface{}) {
	l.log(ctx, 2, FATAL, component, action, message, firstFields(fields), err, nil)
}

// WithDuration logs with timing information
func (l *Logger) WithDuration(ctx context.Context, level LogLevel, component, action, message string, duration time.Duration, fields ...map[string]interface{}) {
	l.log(ctx, 2, level, component, action, message, firstFields(fields), nil, &duration)
}

// StartTimer returns a function that logs the elapsed time when called
func (l *Logger) StartTimer(ctx context.Context, component, action, message string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		l.log(ctx, 2, DEBUG, component, action, message, nil, nil, &duration)
	}
}

// Close flushes pending entries and closes file writers. Safe to call twice.
func (l *Logger) Close() {
	l.closed.Do(func() {
		close(l.done)
		l.wg.Wait()

		l.mu.Lock()
		defer l.mu.Unlock()

		for _, writer := range l.writers {
			if closer, ok := writer.(io.Closer); ok && writer != os.Stdout && writer != os.Stderr {
				_ = closer.Close()
			}
		}
	})
}

// AddWriter adds a new writer to the logger
func (l *Logger) AddWriter(writer io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writers = append(l.writers, writer)
}

// Global logger instance. Nil means logging is disabled.
var globalLogger *Logger
var loggerMutex sync.RWMutex

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return globalLogger
}

// Convenience functions that use the global logger

func Debug(ctx context.Context, component, action, message string, fields ...map[string]interface{}) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.log(ctx, 2, DEBUG, component, action, message, firstFields(fields), nil, nil)
	}
}

func Info(ctx context.Context, component, action, message string, fields ...map[string]interface{}) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.log(ctx, 2, INFO, component, action, message, firstFields(fields), nil, nil)
	}
}

func Warn(ctx context.Context, component, action, message string, fields ...map[string]interface{}) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.log(ctx, 2, WARN, component, action, message, firstFields(fields), nil, nil)
	}
}

func Error(ctx context.Context, component, action, message string, err error, fields ...map[string]interface{}) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.log(ctx, 2, ERROR, component, action, message, firstFields(fields), err, nil)
	}
}

func Fatal(ctx context.Context, component, action, message string, err error, fields ...map[string]interface{}) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.log(ctx, 2, FATAL, component, action, message, firstFields(fields), err, nil)
	}
}

// DebugEnabled reports whether the global logger would write DEBUG entries.
// Use it to skip building expensive fields.
func DebugEnabled() bool {
	logger := GetGlobalLogger()
	return logger != nil && logger.Enabled(DEBUG)
}

func StartTimer(ctx context.Context, component, action, message string) func() {
	if logger := GetGlobalLogger(); logger != nil {
		return logger.StartTimer(ctx, component, action, message)
	}
	return func() {}
}
