package message

import (
	"fmt"
	"strings"
)

// Level is a log record's severity. Levels order from most to least verbose.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var namesToLevel = map[string]Level{
	"TRACE": LevelTrace,
	"DEBUG": LevelDebug,
	"INFO":  LevelInfo,
	"WARN":  LevelWarn,
	"WARNING": LevelWarn,
	"ERROR": LevelError,
	"ERR":   LevelError,
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel parses a level name case-insensitively. For an unrecognized
// name it reports ok=false; MustParseLevel supplies the INFO fallback.
func ParseLevel(s string) (Level, bool) {
	l, ok := namesToLevel[strings.ToUpper(strings.TrimSpace(s))]
	return l, ok
}

// MustParseLevel is ParseLevel with an INFO fallback, used where the caller
// has already validated the string came from a closed set (e.g. CLI default).
func MustParseLevel(s string) Level {
	if l, ok := ParseLevel(s); ok {
		return l
	}
	return LevelInfo
}

// Enabled reports whether a record at level 'at' should be emitted by a
// sink/logger configured at level 'threshold'.
func Enabled(threshold, at Level) bool {
	return at >= threshold
}
