// Package logger provides the levelled, colourised loggers used by the
// relay server and the player client.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel controls which messages a logger emits.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var (
	globalMu    sync.RWMutex
	globalLevel = INFO
)

// Named loggers, one per process role.
var (
	Relay  = New("RELAY")
	Client = New("CLIENT")
)

// SetGlobalLogLevel sets the minimum level for all loggers.
func SetGlobalLogLevel(level LogLevel) {
	globalMu.Lock()
	globalLevel = level
	globalMu.Unlock()
}

// ParseLevel maps a level name such as "DEBUG" to its LogLevel,
// defaulting to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return DEBUG
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func level() LogLevel {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLevel
}

// Logger writes timestamped, tagged lines to the terminal and, when
// configured, to a log file.
type Logger struct {
	name string

	mu   sync.Mutex
	file *os.File

	debugColor *color.Color
	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
}

// New creates a logger tagged with the given name.
func New(name string) *Logger {
	return &Logger{
		name:       name,
		debugColor: color.New(color.FgHiBlack),
		infoColor:  color.New(color.FgCyan),
		warnColor:  color.New(color.FgYellow),
		errorColor: color.New(color.FgRed, color.Bold),
	}
}

// SetFile mirrors all output to the file at path, creating it if needed.
func (l *Logger) SetFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.mu.Lock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.mu.Unlock()
	return nil
}

// InitializeFileLogging points the named loggers at default files under dir.
func InitializeFileLogging(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := Relay.SetFile(filepath.Join(dir, "relay.log")); err != nil {
		return err
	}
	return Client.SetFile(filepath.Join(dir, "client.log"))
}

func (l *Logger) log(lvl LogLevel, c *color.Color, tag, format string, args ...interface{}) {
	if lvl < level() {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	c.Printf("[%s] [%s] [%s] %s\n", timestamp, l.name, tag, msg)
	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] [%s] [%s] %s\n", timestamp, l.name, tag, msg)
	}
}

// Debug logs fine-grained routing detail.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, l.debugColor, "DEBUG", format, args...)
}

// Info logs normal lifecycle events.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, l.infoColor, "INFO", format, args...)
}

// Warn logs anomalies that the relay recovered from.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, l.warnColor, "WARN", format, args...)
}

// Error logs failures local to a message or connection.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, l.errorColor, "ERROR", format, args...)
}

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(ERROR, l.errorColor, "FATAL", format, args...)
	os.Exit(1)
}
