// Package log provides leveled, styled terminal logging for dakota.
//
// Every diagnostic goes to stderr: stdout is reserved for the preprocessed
// or substituted text, which callers often pipe into another tool.
// Uses lipgloss for terminal styling.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// LogLevel controls the verbosity of log output.
type LogLevel int

const (
	// LevelDebug is the most verbose level.
	LevelDebug LogLevel = iota
	// LevelInfo is the default level.
	LevelInfo
	// LevelWarn shows only warnings and errors.
	LevelWarn
	// LevelError shows only errors.
	LevelError
	// LevelSilent suppresses all output.
	LevelSilent
)

var levelNames = map[string]LogLevel{
	"debug":  LevelDebug,
	"info":   LevelInfo,
	"warn":   LevelWarn,
	"error":  LevelError,
	"silent": LevelSilent,
}

// ParseLevel maps a level name (debug, info, warn, error, silent) to a level.
func ParseLevel(name string) (LogLevel, error) {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// config holds the global logger configuration.
type config struct {
	mu     sync.RWMutex
	level  LogLevel
	prefix bool
	quiet  bool
	out    io.Writer
}

var cfg = &config{
	level: LevelInfo,
	out:   os.Stderr,
}

// --- Lipgloss styles (package-level, initialized once) ---

var (
	dimStyle    = lipgloss.NewStyle().Faint(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	cyanBoldStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

// --- Configuration functions ---

// SetLevel sets the minimum log level. Messages below this level are suppressed.
func SetLevel(level LogLevel) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.level = level
}

// GetLevel returns the current log level.
func GetLevel() LogLevel {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.level
}

// SetPrefix enables or disables the [dakota] prefix on all messages.
func SetPrefix(enabled bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.prefix = enabled
}

// SetOutput redirects log output. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	cfg.out = w
}

// EnableQuietMode suppresses ALL output including errors.
// Only exit codes communicate success/failure.
func EnableQuietMode() {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.quiet = true
	cfg.level = LevelSilent
}

// DisableQuietMode restores normal output.
func DisableQuietMode() {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.quiet = false
	cfg.level = LevelInfo
}

// IsQuiet returns whether quiet mode is enabled.
func IsQuiet() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.quiet
}

// --- Internal helpers ---

// canOutput checks if output is allowed at the given level.
func canOutput(level LogLevel) bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return !cfg.quiet && cfg.level <= level
}

func emit(style lipgloss.Style, message string) {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	if cfg.prefix {
		message = "[dakota] " + message
	}
	fmt.Fprintln(cfg.out, style.Render(message))
}

// --- Log output functions ---

// Debug outputs a debug-level message (dim styling).
func Debug(message string) {
	if canOutput(LevelDebug) {
		emit(dimStyle, message)
	}
}

// Debugf outputs a formatted debug-level message.
func Debugf(format string, args ...any) {
	if canOutput(LevelDebug) {
		Debug(fmt.Sprintf(format, args...))
	}
}

// Info outputs an info-level message (no styling).
func Info(message string) {
	if canOutput(LevelInfo) {
		emit(lipgloss.NewStyle(), message)
	}
}

// Infof outputs a formatted info-level message.
func Infof(format string, args ...any) {
	if canOutput(LevelInfo) {
		Info(fmt.Sprintf(format, args...))
	}
}

// Warn outputs a warning message (yellow).
func Warn(message string) {
	if canOutput(LevelWarn) {
		emit(yellowStyle, message)
	}
}

// Warnf outputs a formatted warning message.
func Warnf(format string, args ...any) {
	if canOutput(LevelWarn) {
		Warn(fmt.Sprintf(format, args...))
	}
}

// Error outputs an error message (red).
func Error(message string) {
	if canOutput(LevelError) {
		emit(redStyle, message)
	}
}

// Errorf outputs a formatted error message.
func Errorf(format string, args ...any) {
	if canOutput(LevelError) {
		Error(fmt.Sprintf(format, args...))
	}
}

// Success outputs a success message (green, info level).
func Success(message string) {
	if canOutput(LevelInfo) {
		emit(greenStyle, message)
	}
}

// --- Style builders (return styled strings without printing) ---

// Style provides string styling functions that return styled strings
// without printing them.
var Style = struct {
	Dim      func(...string) string
	Bold     func(...string) string
	Red      func(...string) string
	Green    func(...string) string
	Yellow   func(...string) string
	Cyan     func(...string) string
	CyanBold func(...string) string
}{
	Dim:      dimStyle.Render,
	Bold:     boldStyle.Render,
	Red:      redStyle.Render,
	Green:    greenStyle.Render,
	Yellow:   yellowStyle.Render,
	Cyan:     cyanStyle.Render,
	CyanBold: cyanBoldStyle.Render,
}
