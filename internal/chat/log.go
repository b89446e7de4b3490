// Package chat holds the presentation-side conversation log. The log is a
// flat, append-only display record; the pipeline never reads it and keeps
// no dialogue state across invocations.
package chat

import "time"

// Role distinguishes who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single displayed message.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Log is an ordered, append-only sequence of turns.
type Log struct {
	turns []Turn
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a turn stamped with now.
func (l *Log) Append(role Role, content string) Turn {
	t := Turn{Role: role, Content: content, Timestamp: time.Now()}
	l.turns = append(l.turns, t)
	return t
}

// Turns returns the turns in append order. The returned slice must not be
// mutated.
func (l *Log) Turns() []Turn {
	return l.turns
}

// Len returns the number of turns.
func (l *Log) Len() int {
	return len(l.turns)
}
