package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"douyin_youtube_tool/config"
)

// Manager owns the application logger and its underlying files.
type Manager struct {
	log       *logrus.Logger
	infoFile  *os.File
	errorFile *os.File
}

var global *Manager

// Initialize configures the global logger manager.
func Initialize(cfg *config.Config) (*Manager, error) {
	manager, err := New(cfg)
	if err != nil {
		return nil, err
	}
	global = manager
	return manager, nil
}

// New creates a new Manager instance.
func New(cfg *config.Config) (*Manager, error) {
	dir := cfg.LogDirectory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	outputFile := cfg.LogOutputFile
	if outputFile == "" {
		outputFile = "app.log"
	}
	errorFile := cfg.LogErrorFile
	if errorFile == "" {
		errorFile = "app.error.log"
	}

	infoHandle, err := os.OpenFile(filepath.Join(dir, outputFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	errorHandle, err := os.OpenFile(filepath.Join(dir, errorFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		infoHandle.Close()
		return nil, fmt.Errorf("open error log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(io.MultiWriter(os.Stdout, infoHandle))
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	log.AddHook(&errorFileHook{writer: errorHandle})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return &Manager{
		log:       log,
		infoFile:  infoHandle,
		errorFile: errorHandle,
	}, nil
}

// errorFileHook duplicates error-and-above entries into the error log file.
type errorFileHook struct {
	writer io.Writer
}

func (h *errorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *errorFileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// Log returns the underlying logrus logger.
func (m *Manager) Log() *logrus.Logger {
	return m.log
}

// Close releases file handles.
func (m *Manager) Close() error {
	var firstErr error
	if m.infoFile != nil {
		if err := m.infoFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.errorFile != nil {
		if err := m.errorFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases the global logger manager if initialized.
func Close() error {
	if global == nil {
		return nil
	}
	err := global.Close()
	global = nil
	return err
}

// Log returns the global logger, falling back to the logrus default before
// Initialize has run.
func Log() *logrus.Logger {
	if global != nil {
		return global.log
	}
	return logrus.StandardLogger()
}

// Infof logs at info level through the global logger.
func Infof(format string, args ...any) {
	Log().Infof(format, args...)
}

// Warnf logs at warning level through the global logger.
func Warnf(format string, args ...any) {
	Log().Warnf(format, args...)
}

// Errorf logs at error level through the global logger.
func Errorf(format string, args ...any) {
	Log().Errorf(format, args...)
}

// Debugf logs at debug level through the global logger.
func Debugf(format string, args ...any) {
	Log().Debugf(format, args...)
}

// WithField returns an entry carrying one structured field.
func WithField(key string, value any) *logrus.Entry {
	return Log().WithField(key, value)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log().WithFields(fields)
}
