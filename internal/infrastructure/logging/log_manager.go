package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// LogManager buffers log entries and writes them through a
// RotatingFileWriter, formatting each one with a JSONFormatter. It owns
// no rotation logic of its own — both concerns are delegated to the
// restored teacher types in rotation.go/formatter.go — only the buffering,
// flush cadence, and age/backup cleanup sweep across the whole log
// directory are LogManager's own.
type LogManager struct {
	config    *LogManagerConfig
	filename  string
	writer    *RotatingFileWriter
	formatter *JSONFormatter
	buffer    chan LogEntry
	wg        sync.WaitGroup
	stopChan  chan struct{}
	logger    *Logger
	mu        sync.RWMutex
}

// LogManagerConfig configures the log manager
type LogManagerConfig struct {
	LogDir          string
	MaxFileSize     int64         // Max size in bytes before rotation
	MaxBackups      int           // Max number of backup files
	MaxAge          int           // Max age in days
	Compress        bool          // Compress rotated files
	BufferSize      int           // Size of log buffer
	FlushInterval   time.Duration // How often to flush buffer
	FileNamePattern string        // Log file name pattern, e.g. "ecsforge-%s.log"
}

// LogEntry represents a buffered log entry
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
	Fields    map[string]interface{}
}

// DefaultLogManagerConfig returns default configuration
func DefaultLogManagerConfig() *LogManagerConfig {
	return &LogManagerConfig{
		LogDir:          "./logs",
		MaxFileSize:     100 * 1024 * 1024, // 100MB
		MaxBackups:      10,
		MaxAge:          30,
		Compress:        true,
		BufferSize:      1000,
		FlushInterval:   time.Second,
		FileNamePattern: "ecsforge-%s.log",
	}
}

// NewLogManager creates a new log manager. Rotation and file compression
// are delegated to a RotatingFileWriter built from this config's rotation
// fields; formatting is delegated to a JSONFormatter.
func NewLogManager(config *LogManagerConfig) (*LogManager, error) {
	if config == nil {
		config = DefaultLogManagerConfig()
	}

	if err := os.MkdirAll(config.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(config.LogDir, fmt.Sprintf(config.FileNamePattern, "current"))
	writer, err := NewRotatingFileWriter(filename, &RotationConfig{
		MaxSize:    config.MaxFileSize,
		MaxAge:     time.Duration(config.MaxAge) * 24 * time.Hour,
		MaxBackups: config.MaxBackups,
		Compress:   config.Compress,
		LocalTime:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	manager := &LogManager{
		config:    config,
		filename:  filename,
		writer:    writer,
		formatter: NewJSONFormatter("ecsforge"),
		buffer:    make(chan LogEntry, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	loggerConfig := &LoggerConfig{
		Level:      InfoLevel,
		OutputPath: filename,
		Console:    false,
		JSON:       true,
	}
	logger, err := NewLogger(loggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	manager.logger = logger

	manager.startWorkers()
	return manager, nil
}

// startWorkers starts background workers for log processing
func (lm *LogManager) startWorkers() {
	lm.wg.Add(1)
	go lm.flushWorker()

	lm.wg.Add(1)
	go lm.cleanupWorker()
}

// Write writes a log entry
func (lm *LogManager) Write(entry LogEntry) {
	select {
	case lm.buffer <- entry:
		// Successfully buffered
	default:
		// Buffer full, write directly
		lm.writeEntry(entry)
	}
}

// writeEntry formats the entry and writes it through the rotating writer.
func (lm *LogManager) writeEntry(entry LogEntry) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	data, err := lm.formatter.Format(&entry)
	if err != nil {
		fmt.Printf("Failed to format log entry: %v\n", err)
		return
	}
	if _, err := lm.writer.Write(data); err != nil {
		fmt.Printf("Failed to write log: %v\n", err)
	}
}

// flushWorker periodically flushes the buffer
func (lm *LogManager) flushWorker() {
	defer lm.wg.Done()
	ticker := time.NewTicker(lm.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-lm.buffer:
			lm.writeEntry(entry)
		case <-ticker.C:
			// Flush any remaining entries
			lm.flush()
		case <-lm.stopChan:
			// Final flush before stopping
			lm.flush()
			return
		}
	}
}

// flush flushes all buffered entries
func (lm *LogManager) flush() {
	for {
		select {
		case entry := <-lm.buffer:
			lm.writeEntry(entry)
		default:
			return
		}
	}
}

// cleanupWorker removes old log files
func (lm *LogManager) cleanupWorker() {
	defer lm.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lm.cleanup()
		case <-lm.stopChan:
			return
		}
	}
}

// cleanup removes old log files
func (lm *LogManager) cleanup() {
	files, err := filepath.Glob(filepath.Join(lm.config.LogDir, "*.log*"))
	if err != nil {
		fmt.Printf("Failed to list log files: %v\n", err)
		return
	}

	// Sort files by modification time
	type fileInfo struct {
		path    string
		modTime time.Time
	}

	var fileInfos []fileInfo
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		fileInfos = append(fileInfos, fileInfo{
			path:    file,
			modTime: info.ModTime(),
		})
	}

	sort.Slice(fileInfos, func(i, j int) bool {
		return fileInfos[i].modTime.After(fileInfos[j].modTime)
	})

	// Remove old files
	cutoffTime := time.Now().AddDate(0, 0, -lm.config.MaxAge)
	keepCount := 0

	for _, fi := range fileInfos {
		keepCount++

		// Skip current log file
		if fi.path == lm.filename {
			continue
		}

		// Remove if too old or exceeds max backups
		if fi.modTime.Before(cutoffTime) || keepCount > lm.config.MaxBackups {
			_ = os.Remove(fi.path)
		}
	}
}

// Close flushes any buffered entries, stops the background workers, and
// closes the underlying RotatingFileWriter (which stops its own rotation
// checker goroutine in turn).
func (lm *LogManager) Close() error {
	close(lm.stopChan)
	lm.wg.Wait()

	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.writer.Close()
}
