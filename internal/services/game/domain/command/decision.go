package command

import (
	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
)

// Decision is the pure outcome of handling a command: the events to fold,
// or the reasons the command was declined, plus the log lines to publish.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
	Notes      []Note
	// Failed marks an accepted decision whose in-game outcome was a loss,
	// such as a traced attack. Its events still apply.
	Failed bool
	// Detail carries structured outcome values (damage, rewards, ids) back
	// to the caller. It is never persisted.
	Detail map[string]any
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
}

// Note is a log line a decision wants published once it commits.
type Note struct {
	Level logfeed.Level
	Text  string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// AsFailure returns d marked as an in-game loss.
func (d Decision) AsFailure() Decision {
	d.Failed = true
	return d
}

// WithNotes returns d with notes appended.
func (d Decision) WithNotes(notes ...Note) Decision {
	d.Notes = append(append([]Note(nil), d.Notes...), notes...)
	return d
}

// WithDetail returns d with key set in Detail.
func (d Decision) WithDetail(key string, value any) Decision {
	detail := make(map[string]any, len(d.Detail)+1)
	for k, v := range d.Detail {
		detail[k] = v
	}
	detail[key] = value
	d.Detail = detail
	return d
}

// Info, Success, Warn and Error build notes at the matching level.
func Info(text string) Note    { return Note{Level: logfeed.LevelInfo, Text: text} }
func Success(text string) Note { return Note{Level: logfeed.LevelSuccess, Text: text} }
func Warn(text string) Note    { return Note{Level: logfeed.LevelWarn, Text: text} }
func Error(text string) Note   { return Note{Level: logfeed.LevelError, Text: text} }
