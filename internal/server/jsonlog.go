package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var levelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// Fields carries the key/value context of one log entry.
type Fields map[string]interface{}

// Logger writes one line per entry, either JSON or key=value text.
type Logger struct {
	mu         sync.Mutex
	output     io.Writer
	minLevel   LogLevel
	enableJSON bool
	now        func() time.Time
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Level     LogLevel `json:"level"`
	Time      string   `json:"time"`
	Message   string   `json:"msg"`
	RequestID string   `json:"request_id,omitempty"`
	Fields    Fields   `json:"fields,omitempty"`
	Error     string   `json:"error,omitempty"`
	Caller    string   `json:"caller,omitempty"`
}

// DefaultLogger is the logger behind the package-level helpers.
var DefaultLogger = NewLogger(os.Stdout, ParseLogLevel(os.Getenv("LFD_LOG_LEVEL")), os.Getenv("LFD_LOG_FORMAT") == "json")

// NewLogger builds a logger writing to w.
func NewLogger(w io.Writer, minLevel LogLevel, enableJSON bool) *Logger {
	if _, ok := levelRank[minLevel]; !ok {
		minLevel = LogLevelInfo
	}
	return &Logger{
		output:     w,
		minLevel:   minLevel,
		enableJSON: enableJSON,
		now:        time.Now,
	}
}

// ParseLogLevel maps a level name to a LogLevel, defaulting to info.
func ParseLogLevel(level string) LogLevel {
	switch LogLevel(level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return LogLevel(level)
	default:
		return LogLevelInfo
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

// getCaller returns the file and line number of the caller
func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			file = file[i+1:]
			break
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, fields Fields, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Level:   level,
		Time:    l.now().UTC().Format(time.RFC3339),
		Message: msg,
		Fields:  fields,
		Caller:  getCaller(3),
	}
	if ctx != nil {
		entry.RequestID = RequestIDFromContext(ctx)
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enableJSON {
		data, mErr := json.Marshal(entry)
		if mErr != nil {
			data, _ = json.Marshal(LogEntry{Level: level, Time: entry.Time, Message: msg, Error: mErr.Error()})
		}
		fmt.Fprintln(l.output, string(data))
		return
	}

	fmt.Fprintf(l.output, "[%s] %s %s", entry.Level, entry.Time, entry.Message)
	if entry.RequestID != "" {
		fmt.Fprintf(l.output, " rid=%s", entry.RequestID)
	}
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(l.output, " %s=%v", k, entry.Fields[k])
	}
	if entry.Error != "" {
		fmt.Fprintf(l.output, " error=%q", entry.Error)
	}
	fmt.Fprintln(l.output)
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LogLevelDebug, msg, fields, nil)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LogLevelInfo, msg, fields, nil)
}

// Warn logs a warning, optionally with the error that caused it.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields, err error) {
	l.log(ctx, LogLevelWarn, msg, fields, err)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, msg string, fields Fields, err error) {
	l.log(ctx, LogLevelError, msg, fields, err)
}
