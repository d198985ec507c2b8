package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggerService handles application logging
type LoggerService struct {
	mu         sync.Mutex
	logDir     string
	logFile    *os.File
	logger     *logrus.Logger
	currentDay string
	stdout     io.Writer
}

// NewLoggerService creates a logger writing to logDir and stdout
func NewLoggerService(logDir string) *LoggerService {
	return newLoggerService(logDir, os.Stdout)
}

func newLoggerService(logDir string, stdout io.Writer) *LoggerService {
	service := &LoggerService{
		logDir: logDir,
		stdout: stdout,
		logger: logrus.New(),
	}
	service.logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	service.initializeLogger()
	return service
}

// initializeLogger sets up the logging system
func (s *LoggerService) initializeLogger() {
	if s.logDir == "" {
		s.logDir = "logs"
	}
	if err := os.MkdirAll(s.logDir, 0755); err != nil {
		log.Printf("Warning: Could not create logs directory: %v", err)
		s.logDir = "logs"
		os.MkdirAll(s.logDir, 0755)
	}

	if err := s.rotateLogFile(); err != nil {
		log.Printf("Warning: Could not create log file: %v. Logging to stdout only.", err)
		s.logger.SetOutput(s.stdout)
		return
	}

	s.LogInfo("Logger initialized", fmt.Sprintf("Log directory: %s", s.logDir))
}

// rotateLogFile opens the log file for the current day
func (s *LoggerService) rotateLogFile() error {
	today := time.Now().Format("2006-01-02")
	if s.currentDay == today && s.logFile != nil {
		return nil
	}

	if s.logFile != nil {
		s.logFile.Close()
	}

	logFilePath := filepath.Join(s.logDir, fmt.Sprintf("%s.log", today))
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.logFile = file
	s.currentDay = today

	// Both file and stdout; the standard logger follows so GORM and library output lands in the file too
	multiWriter := io.MultiWriter(s.stdout, s.logFile)
	s.logger.SetOutput(multiWriter)
	log.SetOutput(multiWriter)
	return nil
}

// checkAndRotate switches to a new file when the day changes
func (s *LoggerService) checkAndRotate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentDay != time.Now().Format("2006-01-02") {
		s.rotateLogFile()
	}
}

func entry(l *logrus.Logger, details []string) *logrus.Entry {
	e := logrus.NewEntry(l)
	if len(details) > 0 && details[0] != "" {
		e = e.WithField("details", details[0])
	}
	return e
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	s.checkAndRotate()
	entry(s.logger, details).Info(message)
}

// LogWarning logs a warning message
func (s *LoggerService) LogWarning(message string, details ...string) {
	s.checkAndRotate()
	entry(s.logger, details).Warn(message)
}

// LogError logs an error message
func (s *LoggerService) LogError(message string, err error, details ...string) {
	s.checkAndRotate()
	e := entry(s.logger, details)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(message)
}

// LogPanic logs a panic with stack trace
func (s *LoggerService) LogPanic(recovered interface{}) {
	s.checkAndRotate()
	s.logger.WithField("stack", string(debug.Stack())).Errorf("Recovered from panic: %v", recovered)
}

// LogFrontendError logs errors from the frontend (called via Wails binding)
func (s *LoggerService) LogFrontendError(message string, stack string, componentInfo string) {
	s.checkAndRotate()
	fields := logrus.Fields{"source": "frontend"}
	if componentInfo != "" {
		fields["component"] = componentInfo
	}
	if stack != "" {
		fields["stack"] = stack
	}
	s.logger.WithFields(fields).Error(message)
}

// Logger returns the underlying logrus logger for packages that cannot import services
func (s *LoggerService) Logger() *logrus.Logger {
	return s.logger
}

// GetLogDirectory returns the directory where logs are stored
func (s *LoggerService) GetLogDirectory() string {
	return s.logDir
}

// GetTodayLogPath returns the path to today's log file
func (s *LoggerService) GetTodayLogPath() string {
	today := time.Now().Format("2006-01-02")
	return filepath.Join(s.logDir, fmt.Sprintf("%s.log", today))
}

// CleanOldLogs removes log files older than specified days
func (s *LoggerService) CleanOldLogs(daysToKeep int) error {
	files, err := os.ReadDir(s.logDir)
	if err != nil {
		return err
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysToKeep)
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".log" {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoffDate) {
			filePath := filepath.Join(s.logDir, file.Name())
			s.LogInfo("Deleting old log file", filePath)
			os.Remove(filePath)
		}
	}
	return nil
}

// Close closes the log file
func (s *LoggerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logFile != nil {
		s.logFile.Close()
		s.logFile = nil
	}
}

// RecoverPanic is a helper to recover from panics in goroutines
func (s *LoggerService) RecoverPanic() {
	if r := recover(); r != nil {
		s.LogPanic(r)
	}
}
