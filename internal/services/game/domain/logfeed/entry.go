package logfeed

import "fmt"

// Level is the severity of a log entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelInfo, LevelSuccess, LevelWarn, LevelError:
		return true
	}
	return false
}

// ParseLevel parses a level string.
func ParseLevel(value string) (Level, error) {
	level := Level(value)
	if !level.Valid() {
		return "", fmt.Errorf("unknown log level %q", value)
	}
	return level, nil
}

// Entry is one immutable line of the terminal log. Text may carry inline
// markup and is rendered verbatim by consumers; producers escape anything
// untrusted before it ends up here.
type Entry struct {
	ID    string `json:"id"`
	Level Level  `json:"level"`
	Text  string `json:"text"`
	// TS is the creation time in epoch milliseconds.
	TS int64 `json:"ts"`
}

// Listener receives published entries.
type Listener func(Entry)
