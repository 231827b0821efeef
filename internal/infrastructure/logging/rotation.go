package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotationConfig configures RotatingFileWriter.
type RotationConfig struct {
	MaxSize    int64         // bytes before rotation; 0 disables size-based rotation
	MaxAge     time.Duration // age before rotation; 0 disables time-based rotation
	MaxBackups int           // backup files to keep; 0 keeps them all
	Compress   bool
	LocalTime  bool
}

// DefaultRotationConfig returns the rotation defaults LogManager falls
// back to when its own configuration doesn't specify one.
func DefaultRotationConfig() *RotationConfig {
	return &RotationConfig{
		MaxSize:    100 * 1024 * 1024,
		MaxAge:     24 * time.Hour,
		MaxBackups: 7,
		Compress:   true,
		LocalTime:  true,
	}
}

// RotatingFileWriter is an io.Writer backed by a single log file that
// transparently rotates to a timestamped backup once it exceeds the
// configured size or age, optionally compressing the backup and pruning
// old ones beyond MaxBackups. LogManager uses one of these instead of
// hand-rolling the same rename/compress/cleanup sequence itself.
type RotatingFileWriter struct {
	config       *RotationConfig
	filename     string
	file         *os.File
	size         int64
	lastRotation time.Time
	mu           sync.Mutex
	stopChan     chan struct{}
}

// NewRotatingFileWriter opens (or creates) filename and starts its
// background rotation checker.
func NewRotatingFileWriter(filename string, config *RotationConfig) (*RotatingFileWriter, error) {
	if config == nil {
		config = DefaultRotationConfig()
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rfw := &RotatingFileWriter{
		config:       config,
		filename:     filename,
		lastRotation: time.Now(),
		stopChan:     make(chan struct{}),
	}
	if err := rfw.openFile(); err != nil {
		return nil, err
	}

	go rfw.rotationChecker()
	return rfw, nil
}

// Write writes p to the current file, rotating first if needed.
func (rfw *RotatingFileWriter) Write(p []byte) (n int, err error) {
	rfw.mu.Lock()
	defer rfw.mu.Unlock()

	if rfw.shouldRotate() {
		if err := rfw.rotate(); err != nil {
			return 0, fmt.Errorf("failed to rotate log: %w", err)
		}
	}

	n, err = rfw.file.Write(p)
	if err != nil {
		return n, err
	}
	rfw.size += int64(n)
	return n, nil
}

// Close stops the rotation checker and closes the current file.
func (rfw *RotatingFileWriter) Close() error {
	close(rfw.stopChan)

	rfw.mu.Lock()
	defer rfw.mu.Unlock()
	if rfw.file != nil {
		return rfw.file.Close()
	}
	return nil
}

func (rfw *RotatingFileWriter) shouldRotate() bool {
	if rfw.config.MaxSize > 0 && rfw.size >= rfw.config.MaxSize {
		return true
	}
	if rfw.config.MaxAge > 0 && time.Since(rfw.lastRotation) >= rfw.config.MaxAge {
		return true
	}
	return false
}

func (rfw *RotatingFileWriter) rotate() error {
	if rfw.file != nil {
		if err := rfw.file.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	rotationName := rfw.rotationFilename()
	if err := os.Rename(rfw.filename, rotationName); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if rfw.config.Compress {
		go rfw.compressFile(rotationName)
	}
	go rfw.cleanupOldFiles()

	if err := rfw.openFile(); err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}
	rfw.lastRotation = time.Now()
	return nil
}

func (rfw *RotatingFileWriter) openFile() error {
	file, err := os.OpenFile(rfw.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rfw.file = file
	rfw.size = info.Size()
	return nil
}

// rotationFilename turns "name.log" into "name.2006-01-02T15-04-05.log".
func (rfw *RotatingFileWriter) rotationFilename() string {
	t := time.Now()
	if !rfw.config.LocalTime {
		t = t.UTC()
	}
	ext := filepath.Ext(rfw.filename)
	name := strings.TrimSuffix(rfw.filename, ext)
	return fmt.Sprintf("%s.%s%s", name, t.Format("2006-01-02T15-04-05"), ext)
}

func (rfw *RotatingFileWriter) compressFile(filename string) {
	src, err := os.Open(filename)
	if err != nil {
		return
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(filename + ".gz")
	if err != nil {
		return
	}
	defer func() { _ = dst.Close() }()

	gz := gzip.NewWriter(dst)
	defer func() { _ = gz.Close() }()

	if _, err := io.Copy(gz, src); err != nil {
		return
	}
	_ = os.Remove(filename)
}

// cleanupOldFiles removes this writer's own backups beyond MaxBackups,
// oldest first.
func (rfw *RotatingFileWriter) cleanupOldFiles() {
	if rfw.config.MaxBackups <= 0 {
		return
	}

	dir := filepath.Dir(rfw.filename)
	base := filepath.Base(rfw.filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	var backups []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		filename := filepath.Base(path)
		if strings.HasPrefix(filename, name+".") && filename != base &&
			(strings.HasSuffix(filename, ext) || strings.HasSuffix(filename, ext+".gz")) {
			backups = append(backups, path)
		}
		return nil
	})

	sort.Slice(backups, func(i, j int) bool {
		infoI, errI := os.Stat(backups[i])
		infoJ, errJ := os.Stat(backups[j])
		if errI != nil || errJ != nil {
			return false
		}
		return infoI.ModTime().Before(infoJ.ModTime())
	})

	if len(backups) > rfw.config.MaxBackups {
		for _, backup := range backups[:len(backups)-rfw.config.MaxBackups] {
			_ = os.Remove(backup)
		}
	}
}

// rotationChecker rotates in the background so a quiet writer (one that
// Write is never called on again) still honors MaxAge.
func (rfw *RotatingFileWriter) rotationChecker() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rfw.mu.Lock()
			if rfw.shouldRotate() {
				_ = rfw.rotate()
			}
			rfw.mu.Unlock()
		case <-rfw.stopChan:
			return
		}
	}
}
