package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antibyte/gwbasic/pkg/configuration"
)

// LogLevel orders log entries by severity.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var logLevelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// LogArea groups log entries by subsystem; each area is switched separately.
type LogArea string

const (
	AreaTokenizer LogArea = "tokenizer"
	AreaProgram   LogArea = "program"
	AreaMBF       LogArea = "mbf"
	AreaCipher    LogArea = "cipher"
	AreaLibrary   LogArea = "library"
	AreaConfig    LogArea = "config"
	AreaGeneral   LogArea = "general"
)

var allAreas = []LogArea{
	AreaTokenizer, AreaProgram, AreaMBF, AreaCipher,
	AreaLibrary, AreaConfig, AreaGeneral,
}

// Logger writes filtered entries to a rotating file.
type Logger struct {
	enabled       int32 // atomic bool
	level         int32 // atomic LogLevel
	areaEnabled   map[LogArea]*int32
	out           io.Writer
	file          *os.File
	mutex         sync.Mutex
	logPath       string
	maxSizeMB     int64
	rotationCount int
	currentSize   int64
}

var (
	globalLogger *Logger
	initOnce     sync.Once
)

// Initialize sets up the global logger from the [Debug] configuration section.
// Until it is called every log function is a no-op.
func Initialize() error {
	var err error
	initOnce.Do(func() {
		l := newLogger()
		l.loadConfig()
		if err = l.openLogFile(); err != nil {
			return
		}
		globalLogger = l
	})
	return err
}

// SetOutput routes the global logger to w with every area enabled at the
// given level. Passing nil turns logging off again.
func SetOutput(w io.Writer, level LogLevel) {
	if w == nil {
		globalLogger = nil
		return
	}
	l := newLogger()
	l.out = w
	l.enabled = 1
	l.level = int32(level)
	for _, flag := range l.areaEnabled {
		*flag = 1
	}
	globalLogger = l
}

func newLogger() *Logger {
	l := &Logger{areaEnabled: make(map[LogArea]*int32)}
	for _, area := range allAreas {
		l.areaEnabled[area] = new(int32)
	}
	return l
}

func (l *Logger) loadConfig() {
	enabled := configuration.GetBool("Debug", "enable_debug_logging", true)
	atomic.StoreInt32(&l.enabled, boolToInt32(enabled))

	level := parseLogLevel(configuration.GetString("Debug", "log_level", "INFO"))
	atomic.StoreInt32(&l.level, int32(level))

	l.logPath = configuration.GetString("Debug", "log_file", "gwbasic.log")
	l.maxSizeMB = int64(configuration.GetInt("Debug", "max_log_size_mb", 10))
	l.rotationCount = configuration.GetInt("Debug", "log_rotation_count", 3)

	for area, flag := range l.areaEnabled {
		on := configuration.GetBool("Debug", "log_"+string(area), false)
		atomic.StoreInt32(flag, boolToInt32(on))
	}
}

func (l *Logger) openLogFile() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		l.file.Close()
	}
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.out = file
	if stat, err := file.Stat(); err == nil {
		l.currentSize = stat.Size()
	}
	return nil
}

// rotateLogFile shifts name.N to name.N+1 and starts a fresh file.
// Caller holds the mutex.
func (l *Logger) rotateLogFile() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	for i := l.rotationCount - 1; i >= 1; i-- {
		oldName := fmt.Sprintf("%s.%d", l.logPath, i)
		newName := fmt.Sprintf("%s.%d", l.logPath, i+1)
		if i == l.rotationCount-1 {
			os.Remove(newName)
		}
		os.Rename(oldName, newName)
	}
	os.Rename(l.logPath, l.logPath+".1")

	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.out = file
	l.currentSize = 0
	return nil
}

func (l *Logger) shouldLog(level LogLevel, area LogArea) bool {
	if atomic.LoadInt32(&l.enabled) == 0 {
		return false
	}
	if atomic.LoadInt32(&l.level) > int32(level) {
		return false
	}
	if flag, exists := l.areaEnabled[area]; exists {
		return atomic.LoadInt32(flag) != 0
	}
	return false
}

func (l *Logger) writeLog(level LogLevel, area LogArea, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	_, file, line, _ := runtime.Caller(2)
	entry := fmt.Sprintf("[%s] %s [%s:%d] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05.000"),
		logLevelNames[level],
		filepath.Base(file),
		line,
		strings.ToUpper(string(area)),
		message)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.out != nil {
		n, err := io.WriteString(l.out, entry)
		if err == nil && l.file != nil {
			l.currentSize += int64(n)
			if l.maxSizeMB > 0 && l.currentSize > l.maxSizeMB*1024*1024 {
				l.rotateLogFile()
			}
		}
	}

	if level >= ERROR && l.file != nil {
		log.Printf("[%s] [%s] %s", logLevelNames[level], strings.ToUpper(string(area)), message)
	}
}

// Debug writes a debug entry for area.
func Debug(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.shouldLog(DEBUG, area) {
		globalLogger.writeLog(DEBUG, area, format, args...)
	}
}

// Info writes an info entry for area.
func Info(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.shouldLog(INFO, area) {
		globalLogger.writeLog(INFO, area, format, args...)
	}
}

// Warn writes a warning entry for area.
func Warn(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.shouldLog(WARN, area) {
		globalLogger.writeLog(WARN, area, format, args...)
	}
}

// Error writes an error entry for area.
func Error(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.shouldLog(ERROR, area) {
		globalLogger.writeLog(ERROR, area, format, args...)
	}
}

// Fatal logs and exits.
func Fatal(area LogArea, format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.writeLog(FATAL, area, format, args...)
	}
	log.Fatalf("[FATAL] [%s] %s", strings.ToUpper(string(area)), fmt.Sprintf(format, args...))
}

// Config logging
func ConfigInfo(format string, args ...interface{})  { Info(AreaConfig, format, args...) }
func ConfigWarn(format string, args ...interface{})  { Warn(AreaConfig, format, args...) }
func ConfigError(format string, args ...interface{}) { Error(AreaConfig, format, args...) }

// ReloadConfig re-reads the [Debug] section.
func ReloadConfig() error {
	if globalLogger == nil {
		return fmt.Errorf("logger not initialized")
	}
	globalLogger.loadConfig()
	return nil
}

// EnableArea switches logging on for one area.
func EnableArea(area LogArea) {
	if globalLogger != nil {
		if flag, exists := globalLogger.areaEnabled[area]; exists {
			atomic.StoreInt32(flag, 1)
		}
	}
}

// DisableArea switches logging off for one area.
func DisableArea(area LogArea) {
	if globalLogger != nil {
		if flag, exists := globalLogger.areaEnabled[area]; exists {
			atomic.StoreInt32(flag, 0)
		}
	}
}

// GetAreaStatus reports whether an area is currently logged.
func GetAreaStatus(area LogArea) bool {
	if globalLogger == nil {
		return false
	}
	if flag, exists := globalLogger.areaEnabled[area]; exists {
		return atomic.LoadInt32(flag) != 0
	}
	return false
}

// ListAreas returns all known areas.
func ListAreas() []LogArea {
	out := make([]LogArea, len(allAreas))
	copy(out, allAreas)
	return out
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func parseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Close flushes and closes the log file.
func Close() {
	if globalLogger == nil {
		return
	}
	globalLogger.mutex.Lock()
	defer globalLogger.mutex.Unlock()
	if globalLogger.file != nil {
		globalLogger.file.Close()
		globalLogger.file = nil
		globalLogger.out = nil
	}
}
