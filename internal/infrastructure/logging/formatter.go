package logging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Formatter renders a LogEntry into the bytes LogManager writes to disk.
// JSONFormatter is the one LogManager actually drives; TextFormatter
// exists for callers that want a human-readable console rendering of the
// same LogEntry (e.g. a CLI tool replaying a log file).
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// JSONFormatter formats a LogEntry as a single line of JSON, tagged with
// the owning service name so multiple services' logs can be told apart
// once aggregated.
type JSONFormatter struct {
	PrettyPrint bool
	TimeFormat  string
	Service     string
}

// NewJSONFormatter creates a JSON formatter tagging entries with service.
func NewJSONFormatter(service string) *JSONFormatter {
	return &JSONFormatter{
		TimeFormat: time.RFC3339Nano,
		Service:    service,
	}
}

// Format formats the log entry as JSON, newline-terminated.
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	record := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(f.TimeFormat),
		"level":     entry.Level,
		"message":   entry.Message,
		"service":   f.Service,
	}
	if len(entry.Fields) > 0 {
		record["fields"] = entry.Fields
	}

	var data []byte
	var err error
	if f.PrettyPrint {
		data, err = json.MarshalIndent(record, "", "  ")
	} else {
		data, err = json.Marshal(record)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(data, '\n'), nil
}

// TextFormatter formats logs as human-readable text: "TIME [LEVEL] message
// key=value ...".
type TextFormatter struct {
	TimeFormat       string
	DisableColors    bool
	FullTimestamp    bool
	QuoteEmptyFields bool
}

// NewTextFormatter creates a text formatter with sensible console defaults.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		TimeFormat:    "2006-01-02 15:04:05",
		FullTimestamp: true,
	}
}

// Format formats the log entry as text.
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var sb strings.Builder

	if f.FullTimestamp {
		sb.WriteString(entry.Timestamp.Format(f.TimeFormat))
		sb.WriteString(" ")
	}

	levelStr := entry.Level
	if !f.DisableColors {
		levelStr = f.colorizeLevel(entry.Level)
	}
	fmt.Fprintf(&sb, "[%s] ", levelStr)
	sb.WriteString(entry.Message)

	for key, value := range entry.Fields {
		sb.WriteString(" ")
		sb.WriteString(key)
		sb.WriteString("=")

		valueStr := fmt.Sprintf("%v", value)
		switch {
		case f.QuoteEmptyFields && valueStr == "":
			valueStr = `""`
		case strings.Contains(valueStr, " "):
			valueStr = fmt.Sprintf("%q", valueStr)
		}
		sb.WriteString(valueStr)
	}

	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// colorizeLevel adds ANSI color codes to a log level for console output.
func (f *TextFormatter) colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return "\033[36m" + level + "\033[0m"
	case "INFO":
		return "\033[32m" + level + "\033[0m"
	case "WARN":
		return "\033[33m" + level + "\033[0m"
	case "ERROR":
		return "\033[31m" + level + "\033[0m"
	case "FATAL":
		return "\033[35m" + level + "\033[0m"
	default:
		return level
	}
}
