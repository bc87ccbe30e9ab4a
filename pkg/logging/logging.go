// pkg/logging/logging.go - leveled logging package for winapps
//
// Every message goes to stderr and to winapps.log in the configured log
// directory as a plain "[timestamp] LEVEL message key=value" line. The same
// entry is also written to events.jsonl (one JSON object per line) and to
// winapps.yaml (a stream of YAML documents) for external tooling.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/windowsadmins/winapps/pkg/config"
	"github.com/windowsadmins/winapps/pkg/version"
	"gopkg.in/yaml.v3"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	// Define log levels.
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel. Unknown strings
// select LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is the structured form of one log message.
type LogEntry struct {
	Time       int64                  `json:"time" yaml:"time"`
	Timestamp  string                 `json:"timestamp" yaml:"timestamp"`
	Level      string                 `json:"level" yaml:"level"`
	Message    string                 `json:"message" yaml:"message"`
	PID        int64                  `json:"pid" yaml:"pid"`
	Hostname   string                 `json:"hostname" yaml:"hostname"`
	Version    string                 `json:"version" yaml:"version"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Logger writes leveled messages to the console and the log files.
type Logger struct {
	mu       sync.RWMutex
	logger   *log.Logger
	logLevel LogLevel
	logFile  *os.File
	jsonFile *os.File
	yamlFile *os.File
	hostname string
}

// singleton instance and sync.Once for thread-safe initialization
var (
	instance *Logger
	once     sync.Once
)

// Init initializes the singleton Logger based on the provided configuration.
// It must be called before any logging functions are used.
func Init(cfg *config.Configuration) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(cfg, os.Stderr)
	})
	return initErr
}

// ReInit closes the current logger and initializes a new one, e.g. after
// flags changed the configured level.
func ReInit(cfg *config.Configuration) error {
	CloseLogger()
	l, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	once.Do(func() {})
	instance = l
	return nil
}

// newLogger opens the log files under cfg.LogDir. console may be nil to log
// to the files only.
func newLogger(cfg *config.Configuration, console io.Writer) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", cfg.LogDir, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		logLevel: ParseLevel(cfg.LogLevel),
		hostname: hostname,
	}
	if err := l.openFiles(cfg.LogDir); err != nil {
		l.close()
		return nil, err
	}

	if console != nil {
		l.logger = log.New(io.MultiWriter(console, l.logFile), "", 0)
	} else {
		l.logger = log.New(l.logFile, "", 0)
	}
	return l, nil
}

func (l *Logger) openFiles(dir string) error {
	var err error
	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY

	l.logFile, err = os.OpenFile(filepath.Join(dir, "winapps.log"), flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open main log file: %w", err)
	}
	l.jsonFile, err = os.OpenFile(filepath.Join(dir, "events.jsonl"), flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open JSON log file: %w", err)
	}
	l.yamlFile, err = os.OpenFile(filepath.Join(dir, "winapps.yaml"), flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open YAML log file: %w", err)
	}
	return nil
}

func (l *Logger) close() {
	for _, f := range []**os.File{&l.logFile, &l.jsonFile, &l.yamlFile} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil {
			fmt.Printf("Failed to close log file: %v\n", err)
		}
		*f = nil
	}
}

// CloseLogger closes all log files if they're open.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.close()
	instance.logger = nil
}

// logMessage is the core logging method that writes to all configured outputs
func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logger == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: %s %s %v\n", level.String(), message, keyValues)
		return
	}

	if level > l.logLevel {
		return
	}

	now := time.Now()
	entry := LogEntry{
		Time:      now.Unix(),
		Timestamp: now.Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		PID:       int64(os.Getpid()),
		Hostname:  l.hostname,
		Version:   version.Version().Version,
	}
	if len(keyValues) > 0 {
		entry.Properties = make(map[string]interface{})
		for i := 0; i+1 < len(keyValues); i += 2 {
			entry.Properties[fmt.Sprintf("%v", keyValues[i])] = keyValues[i+1]
		}
	}

	l.writeMainLog(entry, keyValues)
	if l.jsonFile != nil {
		l.writeJSONLog(entry)
	}
	if l.yamlFile != nil {
		l.writeYAMLLog(entry)
	}
}

// writeMainLog writes the plain text line.
func (l *Logger) writeMainLog(entry LogEntry, keyValues []interface{}) {
	ts := time.Unix(entry.Time, 0).Format("2006-01-02 15:04:05")
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", ts, entry.Level, entry.Message)
	for i := 0; i+1 < len(keyValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyValues[i], keyValues[i+1])
	}
	l.logger.Println(b.String())
}

func (l *Logger) writeJSONLog(entry LogEntry) {
	if data, err := json.Marshal(entry); err == nil {
		l.jsonFile.Write(append(data, '\n'))
	}
}

func (l *Logger) writeYAMLLog(entry LogEntry) {
	if data, err := yaml.Marshal(entry); err == nil {
		l.yamlFile.WriteString("---\n" + string(data))
	}
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	logAt(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	logAt(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	logAt(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	logAt(LevelError, message, keyValues...)
}

func logAt(level LogLevel, message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: %s %s %v\n", level.String(), message, keyValues)
		return
	}
	instance.logMessage(level, message, keyValues...)
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
)

// New creates a console-only Logger for command output. Verbose output goes
// to stdout, everything else to stderr.
func New(verbose bool) *Logger {
	enableColors()

	output := os.Stdout
	if !verbose {
		output = os.Stderr
	}
	return &Logger{
		logger:   log.New(output, "", 0),
		logLevel: LevelInfo,
	}
}

// SetOutput changes the output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
}

// colorPrintf prints a colored message.
func (l *Logger) colorPrintf(color, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	l.logger.Printf("%s[%s] %s%s", color, ts, msg, colorReset)
}

// Printf prints a regular message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, v...))
}

// Success prints a success message in green.
func (l *Logger) Success(format string, v ...interface{}) {
	l.colorPrintf(colorGreen, format, v...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, v ...interface{}) {
	l.colorPrintf(colorRed, format, v...)
}

// Warning prints a warning message in yellow.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.colorPrintf(colorYellow, format, v...)
}

// Debug prints a debug message in blue.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.colorPrintf(colorBlue, format, v...)
}

// Fatal prints an error message in red and exits.
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Error(format, v...)
	os.Exit(1)
}
