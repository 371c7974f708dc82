// Package logging provides component loggers for dupsweep backed by
// charmbracelet/log, writing to a rotating file and optionally to stderr.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("index")
//	logger.Warn("skipping unreadable file", "path", path)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level.
	// Empty disables console output.
	ConsoleLevel string

	// Console is where console output goes. Nil means os.Stderr.
	Console io.Writer
}

// Logger is a component logger.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a logger that adds the given key/value pairs to every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	child := &Logger{
		file:      l.file.With(args...),
		component: l.component,
	}
	if l.console != nil {
		child.console = l.console.With(args...)
	}
	return child
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// registry holds the global logging state.
type registry struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     io.Writer
	consoleOn   bool
	consoleLvl  Level
	loggers     map[string]*Logger
}

var global = &registry{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// Init initializes the logging system. Loggers obtained earlier with Get
// are rebuilt so package-level loggers pick up the configuration.
// Before Init, all loggers discard their output.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	consoleOn := cfg.ConsoleLevel != ""
	consoleLvl := LevelInfo
	if consoleOn {
		consoleLvl, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}

	global.writer = writer
	global.level = level
	global.components = components
	global.consoleOn = consoleOn
	global.consoleLvl = consoleLvl
	global.console = cfg.Console
	if global.console == nil {
		global.console = os.Stderr
	}
	global.initialized = true

	for name, l := range global.loggers {
		*l = *build(name)
	}

	return nil
}

// Get returns the logger for a component, creating it on first use.
// The returned pointer stays valid across Init and Close.
func Get(component string) *Logger {
	global.mu.RLock()
	l, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return l
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l = build(component)
	global.loggers[component] = l
	return l
}

// build creates a logger for component. Must be called with global.mu held.
func build(component string) *Logger {
	level := global.level
	if override, ok := global.components[component]; ok {
		level = override
	}

	if !global.initialized {
		return &Logger{
			file:      log.NewWithOptions(io.Discard, log.Options{Level: level.charm(), Prefix: component}),
			component: component,
		}
	}

	l := &Logger{
		file: log.NewWithOptions(global.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		component: component,
	}

	if global.consoleOn {
		l.console = log.NewWithOptions(global.console, log.Options{
			Level:           global.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	return l
}

// Close flushes and closes the log file. Existing loggers fall back to
// discarding output.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}

	global.initialized = false
	global.consoleOn = false
	global.components = make(map[string]Level)
	for name, l := range global.loggers {
		*l = *build(name)
	}

	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/dupsweep/dupsweep.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "dupsweep", "dupsweep.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
