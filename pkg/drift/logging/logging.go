// Package logging provides component loggers for the drift CLI.
//
// Basic usage:
//
//	cfg := logging.Config{Level: "info", ConsoleLevel: "warn"}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "root", "/srv/data")
//
// Loggers resolve their backends at call time: a package-level logger
// obtained before Init starts writing to the configured outputs as soon
// as Init runs, and writes nowhere before that.
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

// toCharmLevel converts our Level to a charmbracelet/log level.
func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
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
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
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

	// Path is the log file path. Empty uses DefaultLogPath(); "discard"
	// disables file output entirely.
	Path string

	// ConsoleLevel enables stderr output at the specified level.
	// Empty string disables console output.
	ConsoleLevel string

	// Components maps component names to level overrides.
	Components map[string]string
}

// Logger identifies one component. Its methods look up the configured
// backends on each call, so it is valid for the whole process lifetime.
type Logger struct {
	component string
	context   []interface{}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// With returns a new logger carrying additional context pairs.
func (l *Logger) With(args ...interface{}) *Logger {
	ctx := make([]interface{}, 0, len(l.context)+len(args))
	ctx = append(ctx, l.context...)
	ctx = append(ctx, args...)
	return &Logger{component: l.component, context: ctx}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	file, console := globalState.backendsFor(l.component)
	if file == nil {
		return
	}
	if len(l.context) > 0 {
		args = append(append([]interface{}{}, l.context...), args...)
	}
	logTo(file, level, msg, args...)
	if console != nil {
		logTo(console, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

// backendPair holds the built backends for one component.
type backendPair struct {
	file    *log.Logger
	console *log.Logger
}

// state holds the global logging configuration and built backends.
type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *os.File
	level       Level
	consoleOn   bool
	consoleLvl  Level
	components  map[string]Level
	backends    map[string]*backendPair
}

var globalState = &state{
	components: make(map[string]Level),
	backends:   make(map[string]*backendPair),
}

// Init initializes the logging system.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.file != nil {
		if err := globalState.file.Close(); err != nil {
			return fmt.Errorf("closing existing log file: %w", err)
		}
		globalState.file = nil
	}
	globalState.backends = make(map[string]*backendPair)
	globalState.components = make(map[string]Level)

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	globalState.level = level

	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		globalState.components[comp] = parsed
	}

	globalState.consoleOn = false
	if cfg.ConsoleLevel != "" {
		consoleLevel, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		globalState.consoleLvl = consoleLevel
		globalState.consoleOn = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if path != "discard" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		globalState.file = file
	}

	globalState.initialized = true
	return nil
}

// Close closes the log file and returns loggers to their silent state.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	globalState.initialized = false
	globalState.backends = make(map[string]*backendPair)
	if globalState.file != nil {
		err := globalState.file.Close()
		globalState.file = nil
		return err
	}
	return nil
}

// Get returns the logger for a component. Safe to call at package init.
func Get(component string) *Logger {
	return &Logger{component: component}
}

// backendsFor returns the built backends for a component, creating them
// on first use after Init. Returns nils before Init.
func (s *state) backendsFor(component string) (*log.Logger, *log.Logger) {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return nil, nil
	}
	if pair, ok := s.backends[component]; ok {
		s.mu.RUnlock()
		return pair.file, pair.console
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, nil
	}
	if pair, ok := s.backends[component]; ok {
		return pair.file, pair.console
	}

	pair := s.buildBackends(component)
	s.backends[component] = pair
	return pair.file, pair.console
}

// buildBackends constructs the backends for a component from the current
// configuration. Caller holds the write lock.
func (s *state) buildBackends(component string) *backendPair {
	level := s.level
	if override, ok := s.components[component]; ok {
		level = override
	}

	var fileOut io.Writer = io.Discard
	if s.file != nil {
		fileOut = s.file
	}
	pair := &backendPair{
		file: log.NewWithOptions(fileOut, log.Options{
			Level:           level.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}

	if s.consoleOn {
		consoleLevel := s.consoleLvl
		if level > consoleLevel {
			consoleLevel = level
		}
		pair.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           consoleLevel.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	return pair
}

// DefaultLogPath returns the default log file location under the XDG
// state directory.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "drift", "drift.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level: "info",
		Path:  DefaultLogPath(),
	}
}
