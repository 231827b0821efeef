package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerCreation(t *testing.T) {
	tests := []struct {
		name   string
		config *LoggerConfig
		want   LogLevel
	}{
		{
			name:   "Default config",
			config: DefaultConfig(),
			want:   InfoLevel,
		},
		{
			name: "Debug level config",
			config: &LoggerConfig{
				Level:   DebugLevel,
				Console: true,
				JSON:    true,
			},
			want: DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if err != nil {
				t.Fatalf("Failed to create logger: %v", err)
			}

			if logger.level != tt.want {
				t.Errorf("Logger level = %v, want %v", logger.level, tt.want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	config := &LoggerConfig{
		Level:   DebugLevel,
		Console: false,
		JSON:    true,
	}

	// Create logger with buffer output
	logger, _ := NewLogger(config)
	logger.logger = logger.logger.Output(&buf)

	// Test all log levels
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Error("Debug message not found")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Info message not found")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message not found")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message not found")
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	config := &LoggerConfig{
		Level:   InfoLevel,
		Console: false,
		JSON:    true,
	}

	logger, _ := NewLogger(config)
	logger.logger = logger.logger.Output(&buf)

	// Log with fields
	logger.WithFields(map[string]interface{}{
		"user_id": "123",
		"action":  "purchase",
		"amount":  99.99,
	}).Info("Transaction processed")

	output := buf.String()

	// Parse JSON output
	var logEntry map[string]interface{}
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if logEntry["user_id"] != "123" {
		t.Error("user_id field not found or incorrect")
	}
	if logEntry["action"] != "purchase" {
		t.Error("action field not found or incorrect")
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	config := &LoggerConfig{
		Level:   InfoLevel,
		Console: false,
		JSON:    true,
	}

	logger, _ := NewLogger(config)
	logger.logger = logger.logger.Output(&buf)

	// Create context with values
	ctx := context.Background()
	ctx = context.WithValue(ctx, "request_id", "req-123")
	ctx = context.WithValue(ctx, "user_id", "user-456")

	// Log with context
	logger.WithContext(ctx).Info("Request processed")

	output := buf.String()
	if !strings.Contains(output, "req-123") {
		t.Error("request_id not found in log")
	}
	if !strings.Contains(output, "user-456") {
		t.Error("user_id not found in log")
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	config := &LoggerConfig{
		Level:   InfoLevel,
		Console: false,
		JSON:    true,
	}

	logger, _ := NewLogger(config)
	logger.logger = logger.logger.Output(&buf)

	err := errors.New("database connection failed")
	logger.WithError(err).Error("Failed to process request")

	output := buf.String()
	if !strings.Contains(output, "database connection failed") {
		t.Error("Error message not found in log")
	}
}

func TestJSONFormatter(t *testing.T) {
	formatter := NewJSONFormatter("ecsforge-test")
	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   "Test message",
		Fields: map[string]interface{}{
			"key": "value",
		},
	}

	data, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("Failed to format entry: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to parse formatted JSON: %v", err)
	}

	if result["message"] != "Test message" {
		t.Error("Message not found in formatted output")
	}
}

func TestTextFormatter(t *testing.T) {
	formatter := NewTextFormatter()
	formatter.DisableColors = true // Disable colors for testing

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   "Test message",
		Fields: map[string]interface{}{
			"user": "john",
			"age":  30,
		},
	}

	data, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("Failed to format entry: %v", err)
	}

	output := string(data)
	if !strings.Contains(output, "[INFO]") {
		t.Error("Level not found in formatted output")
	}
	if !strings.Contains(output, "Test message") {
		t.Error("Message not found in formatted output")
	}
	if !strings.Contains(output, "user=john") {
		t.Error("Fields not found in formatted output")
	}
}

func TestRotatingFileWriter(t *testing.T) {
	// Create temp directory for test
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	config := &RotationConfig{
		MaxSize:    100, // 100 bytes for testing
		MaxAge:     1 * time.Hour,
		MaxBackups: 3,
		Compress:   false,
		LocalTime:  true,
	}

	writer, err := NewRotatingFileWriter(logFile, config)
	if err != nil {
		t.Fatalf("Failed to create rotating writer: %v", err)
	}
	defer writer.Close()

	// Write data that exceeds max size
	data := []byte("This is a test log message that will be repeated. ")
	for i := 0; i < 5; i++ {
		if _, err := writer.Write(data); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
	}

	// Check if rotation occurred
	files, err := filepath.Glob(filepath.Join(tempDir, "test*.log"))
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}

	if len(files) < 2 {
		t.Error("Expected rotation to create backup files")
	}
}

func TestErrorTracker(t *testing.T) {
	tracker := NewErrorTracker(10, 1*time.Hour)

	// Track multiple errors
	err1 := errors.New("connection refused")
	err2 := errors.New("timeout occurred")
	err3 := errors.New("connection refused") // Duplicate

	tracker.TrackError(err1, nil)
	tracker.TrackError(err2, nil)
	tracker.TrackError(err3, nil)

	stats := tracker.GetErrorStats()

	if stats["total_errors"].(int) != 3 {
		t.Errorf("Expected 3 total errors, got %v", stats["total_errors"])
	}

	if stats["unique_errors"].(int) != 2 {
		t.Errorf("Expected 2 unique errors, got %v", stats["unique_errors"])
	}
}

func TestPerformanceLogger(t *testing.T) {
	logger, _ := NewLogger(DefaultConfig())
	perfLogger := NewPerformanceLogger(logger)

	// Record multiple operations
	for i := 0; i < 5; i++ {
		timer := perfLogger.StartOperation("test_operation")
		time.Sleep(10 * time.Millisecond)
		timer.End()
	}

	// Get metrics
	metric := perfLogger.GetMetric("test_operation")
	if metric == nil {
		t.Fatal("Metric not found")
	}

	if metric.Count != 5 {
		t.Errorf("Expected count 5, got %d", metric.Count)
	}

	if metric.AverageTime < 10*time.Millisecond {
		t.Error("Average time is less than expected")
	}
}

func TestPerformanceReport(t *testing.T) {
	logger, _ := NewLogger(DefaultConfig())
	perfLogger := NewPerformanceLogger(logger)

	// Record operations
	perfLogger.RecordOperation("fast_op", 100*time.Millisecond, nil)
	perfLogger.RecordOperation("slow_op", 2*time.Second, nil)
	perfLogger.RecordOperation("medium_op", 500*time.Millisecond, nil)

	// Generate report
	report := perfLogger.GenerateReport()

	if report.Summary["unique_operations"].(int) != 3 {
		t.Error("Expected 3 unique operations")
	}

	if len(report.Alerts) == 0 {
		t.Error("Expected alerts for slow operations")
	}
}

func BenchmarkLogger(b *testing.B) {
	config := &LoggerConfig{
		Level:   InfoLevel,
		Console: false,
		JSON:    true,
	}

	logger, _ := NewLogger(config)
	logger.logger = logger.logger.Output(io.Discard)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("Benchmark message")
	}
}

func BenchmarkLoggerWithFields(b *testing.B) {
	config := &LoggerConfig{
		Level:   InfoLevel,
		Console: false,
		JSON:    true,
	}

	logger, _ := NewLogger(config)
	logger.logger = logger.logger.Output(io.Discard)

	fields := map[string]interface{}{
		"user_id": "123",
		"action":  "test",
		"value":   42,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.WithFields(fields).Info("Benchmark message")
	}
}
