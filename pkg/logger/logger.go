package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
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
	default:
		return "UNKNOWN"
	}
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Logger writes levelled key/value lines. Derived loggers share the parent's
// sink and level.
type Logger struct {
	state  *sinkState
	fields map[string]interface{}
	tag    string
}

type sinkState struct {
	mu     sync.RWMutex
	level  LogLevel
	format string
	logger *log.Logger
}

type Config struct {
	Level  LogLevel
	Output io.Writer
	Format string // "json" or "text" (default)
	Tag    string // printed in brackets after the level, e.g. "jamf"
}

func New() *Logger {
	return NewWithConfig(Config{
		Level:  INFO,
		Output: os.Stderr,
		Format: FormatText,
	})
}

func NewWithConfig(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	format := strings.ToLower(config.Format)
	if format != FormatJSON {
		format = FormatText
	}

	return &Logger{
		state: &sinkState{
			level:  config.Level,
			format: format,
			logger: log.New(config.Output, "", 0),
		},
		fields: make(map[string]interface{}),
		tag:    config.Tag,
	}
}

// Open builds a logger from textual settings as they appear in the config
// file. output is "stdout", "stderr" or a file path opened for append; the
// returned closer must be closed by the caller and is a no-op for the
// standard streams.
func Open(level, format, output string) (*Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log output %s: %w", output, err)
		}
		w, closer = f, f
	}

	return NewWithConfig(Config{Level: lvl, Output: w, Format: format}), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (l *Logger) WithFields(keyVals ...interface{}) *Logger {
	newLogger := &Logger{
		state:  l.state,
		fields: make(map[string]interface{}, len(l.fields)+len(keyVals)/2),
		tag:    l.tag,
	}

	for k, v := range l.fields {
		newLogger.fields[k] = v
	}

	for i := 0; i+1 < len(keyVals); i += 2 {
		key := fmt.Sprintf("%v", keyVals[i])
		newLogger.fields[key] = keyVals[i+1]
	}

	return newLogger
}

// WithField returns a logger carrying one extra field, e.g. component=runner.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(key, value)
}

// WithTag returns a logger that prints tag after the level.
func (l *Logger) WithTag(tag string) *Logger {
	newLogger := l.WithFields()
	newLogger.tag = tag
	return newLogger
}

func (l *Logger) Tag() string {
	return l.tag
}

func (l *Logger) Debug(msg string, keyVals ...interface{}) {
	l.log(DEBUG, msg, keyVals...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	l.log(INFO, msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.log(WARN, msg, kv...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	l.log(ERROR, msg, kv...)
}

func (l *Logger) log(level LogLevel, msg string, kv ...interface{}) {
	l.state.mu.RLock()
	threshold, format, out := l.state.level, l.state.format, l.state.logger
	l.state.mu.RUnlock()

	if level < threshold {
		return
	}

	timestamp := time.Now().Format(timestampLayout)

	allFields := make(map[string]interface{}, len(l.fields)+len(kv)/2)
	for k, v := range l.fields {
		allFields[k] = v
	}

	// key/vals from this specific log call
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprintf("%v", kv[i])
		allFields[key] = kv[i+1]
	}

	if format == FormatJSON {
		out.Print(l.formatJSONLine(timestamp, level, msg, allFields))
		return
	}
	out.Print(l.formatLogLine(timestamp, level, msg, allFields))
}

func (l *Logger) formatLogLine(timestamp string, level LogLevel, msg string, fields map[string]interface{}) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", timestamp))
	parts = append(parts, fmt.Sprintf("[%s]", level.String()))

	if l.tag != "" {
		parts = append(parts, fmt.Sprintf("[%s]", l.tag))
	}

	parts = append(parts, msg)

	if len(fields) > 0 {
		fieldParts := make([]string, 0, len(fields))
		for _, key := range sortedKeys(fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", key, formatValue(fields[key])))
		}
		parts = append(parts, fmt.Sprintf("| %s", strings.Join(fieldParts, " ")))
	}

	return strings.Join(parts, " ")
}

func (l *Logger) formatJSONLine(timestamp string, level LogLevel, msg string, fields map[string]interface{}) string {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		switch tv := v.(type) {
		case error:
			entry[k] = tv.Error()
		case time.Duration:
			entry[k] = tv.String()
		default:
			entry[k] = v
		}
	}
	entry["time"] = timestamp
	entry["level"] = level.String()
	entry["msg"] = msg
	if l.tag != "" {
		entry["tag"] = l.tag
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return l.formatLogLine(timestamp, level, msg, fields)
	}
	return string(data)
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		// Quote strings that contain spaces
		if strings.Contains(v, " ") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		return fmt.Sprintf("%q", v.Error())
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02T15:04:05Z07:00")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.state.mu.Lock()
	l.state.level = level
	l.state.mu.Unlock()
}

func (l *Logger) GetLevel() LogLevel {
	l.state.mu.RLock()
	defer l.state.mu.RUnlock()
	return l.state.level
}

func (l *Logger) IsDebugEnabled() bool {
	return l.GetLevel() <= DEBUG
}

func (l *Logger) IsInfoEnabled() bool {
	return l.GetLevel() <= INFO
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithConfig(Config{Level: ERROR + 1, Output: io.Discard})
}

func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level: %s", level)
	}
}
