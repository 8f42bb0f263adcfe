package backend

import (
	"log"
	"sync/atomic"
	"time"
)

// EventType represents the type of supervisor event.
type EventType string

const (
	// EventOutput carries a chunk of backend stdout, forwarded verbatim.
	EventOutput EventType = "output"
	// EventStderr carries a line of backend stderr.
	EventStderr EventType = "stderr"
	// EventDisconnected indicates the backend process has exited.
	EventDisconnected EventType = "disconnected"
	// EventRestarted indicates a restart cycle completed.
	EventRestarted EventType = "restarted"
	// EventError carries a reportable failure (send without a process,
	// spawn failure, write failure).
	EventError EventType = "error"
)

// Event is a single notification from the supervisor to its subscriber.
// Output events carry data; the rest are control signals.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Text is the stdout chunk, stderr line, or error message.
	Text string
	// PID is the backend process ID the event relates to, if known.
	PID int
	// ExitCode is the process exit code for disconnected events (-1 when
	// the process was killed or the code is unknown).
	ExitCode int
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emitter handles event emission for the supervisor.
// It provides a simple, thread-safe way to emit events to a subscriber.
type Emitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEmitter creates a new Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
// Control signals are never dropped: ordering of output relative to
// disconnect is preserved because everything flows through the one channel.
func (e *Emitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Try immediate send first
	select {
	case e.events <- event:
		return
	default:
		// Channel full, give the receiver a chance to drain
	}

	if event.Type != EventOutput {
		// Control signals block until delivered; subscribers rely on
		// exactly-once disconnected/restarted notifications.
		e.events <- event
		return
	}

	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[backend] WARNING: event channel full, dropped output chunk (total dropped: %d)", count)
		}
	}
}

// DroppedCount returns the total number of output events that have been dropped.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
// This is used by the subscriber (the UI bridge) to receive updates.
func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel.
// This should be called when the supervisor is shut down for good.
func (e *Emitter) Close() {
	close(e.events)
}
