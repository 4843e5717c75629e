// Package driver orchestrates the Sigil front end over a project tree:
// discovering sources, checking them in parallel, remembering results,
// writing artifacts and reports, and re-checking on file changes.
package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel maps a sigil.yaml level name to a Level. Unknown names map to info.
func ParseLevel(name string) Level {
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return LevelInfo
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Tag       string `json:"tag"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
}

// Logger writes tagged log lines as text or JSON
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	format string // "json" or "text"
	level  Level
	now    func() time.Time
}

// NewLogger creates a logger writing entries at or above level to output.
func NewLogger(output io.Writer, format string, level Level) *Logger {
	if format == "" {
		format = "text"
	}
	return &Logger{
		output: output,
		format: format,
		level:  level,
		now:    time.Now,
	}
}

// Debugf logs at debug level
func (lg *Logger) Debugf(tag, format string, args ...any) {
	lg.log(LevelDebug, tag, "", fmt.Sprintf(format, args...))
}

// Infof logs at info level
func (lg *Logger) Infof(tag, format string, args ...any) {
	lg.log(LevelInfo, tag, "", fmt.Sprintf(format, args...))
}

// Errorf logs at error level
func (lg *Logger) Errorf(tag, format string, args ...any) {
	lg.log(LevelError, tag, "", fmt.Sprintf(format, args...))
}

// FileError logs a diagnostic for a source file at error level
func (lg *Logger) FileError(tag, file string, err error) {
	lg.log(LevelError, tag, file, err.Error())
}

func (lg *Logger) log(level Level, tag, file, message string) {
	if lg == nil || level < lg.level {
		return
	}

	entry := LogEntry{
		Timestamp: lg.now().Format(time.RFC3339),
		Level:     level.String(),
		Tag:       tag,
		Message:   message,
		File:      file,
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.format == "json" {
		lg.writeJSON(entry)
	} else {
		lg.writeText(entry)
	}
}

func (lg *Logger) writeJSON(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintf(lg.output, "%s\n", data)
}

func (lg *Logger) writeText(entry LogEntry) {
	tag := entry.Tag
	if entry.Level == "error" {
		tag += " ERROR"
	}
	if entry.File != "" {
		fmt.Fprintf(lg.output, "[%s] %s: %s\n", tag, entry.File, entry.Message)
		return
	}
	fmt.Fprintf(lg.output, "[%s] %s\n", tag, entry.Message)
}
