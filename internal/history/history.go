package history

import (
	"context"
	"time"
)

// EventType is the outcome of a launch attempt.
type EventType string

const (
	EventStarted        EventType = "started"
	EventAlreadyRunning EventType = "already_running"
	EventStartupFailure EventType = "startup_failure"
)

// Event is one launch-attempt audit record.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	Command    string    `json:"command"`
	PID        int       `json:"pid"`
	Error      string    `json:"error,omitempty"`
}

// Sink is a destination for launch-attempt records (audit/statistics
// systems). Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
