// Package bridge mediates between the backend supervisor and the
// presentation layer. It converts supervisor events into typed UI messages,
// forwards user input to the backend, and records the transcript.
package bridge

import (
	"context"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nickpeterson92/chat-juicer/internal/backend"
)

// BotOutputMsg carries a chunk of backend output for the UI to render.
type BotOutputMsg struct {
	Text string
	PID  int
}

// BotStderrMsg carries a line of backend stderr.
type BotStderrMsg struct {
	Line string
}

// BotDisconnectedMsg signals that the backend process has exited.
type BotDisconnectedMsg struct {
	ExitCode int
}

// BotRestartedMsg signals that a restart cycle completed.
type BotRestartedMsg struct {
	PID int
}

// BotErrorMsg carries a reportable error for the UI.
type BotErrorMsg struct {
	Message string
}

// Sink receives UI messages. *tea.Program satisfies it.
type Sink interface {
	Send(msg tea.Msg)
}

// Recorder persists transcript lines. The history store satisfies it; a nil
// Recorder disables persistence.
type Recorder interface {
	Record(role, body string) error
}

// Roles recorded into the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Bridge owns the event pump between a Supervisor and a Sink. The backend
// process handle is never touched directly; all mutation goes through the
// supervisor.
type Bridge struct {
	sup  *backend.Supervisor
	sink Sink
	rec  Recorder

	// pending accumulates assistant output chunks until a line boundary so
	// the transcript stores whole replies rather than pipe-sized fragments.
	pending strings.Builder
}

// New creates a Bridge. rec may be nil.
func New(sup *backend.Supervisor, sink Sink, rec Recorder) *Bridge {
	return &Bridge{sup: sup, sink: sink, rec: rec}
}

// Run pumps supervisor events to the sink until the context is cancelled or
// the supervisor shuts down. Event order is preserved: the pump is the only
// reader of the supervisor channel.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.flushPending()
			return
		case ev, ok := <-b.sup.Events():
			if !ok {
				b.flushPending()
				return
			}
			b.dispatch(ev)
		}
	}
}

func (b *Bridge) dispatch(ev backend.Event) {
	switch ev.Type {
	case backend.EventOutput:
		b.recordOutput(ev.Text)
		b.sink.Send(BotOutputMsg{Text: ev.Text, PID: ev.PID})
	case backend.EventStderr:
		b.sink.Send(BotStderrMsg{Line: ev.Text})
	case backend.EventDisconnected:
		b.flushPending()
		b.sink.Send(BotDisconnectedMsg{ExitCode: ev.ExitCode})
	case backend.EventRestarted:
		b.flushPending()
		b.sink.Send(BotRestartedMsg{PID: ev.PID})
	case backend.EventError:
		b.sink.Send(BotErrorMsg{Message: ev.Text})
	}
}

// HandleInput is called by the UI when the user submits a message. A send
// failure surfaces as a BotErrorMsg instead of an error return; input is
// never silently dropped.
func (b *Bridge) HandleInput(text string) {
	b.record(RoleUser, text)

	if err := b.sup.Send(text); err != nil {
		b.sink.Send(BotErrorMsg{Message: err.Error()})
	}
}

// HandleRestart is called by the UI when the user requests a backend
// restart. The restart runs async so the UI event loop is never blocked on
// process teardown.
func (b *Bridge) HandleRestart(ctx context.Context) {
	go func() {
		if err := b.sup.Restart(ctx); err != nil {
			b.sink.Send(BotErrorMsg{Message: err.Error()})
		}
	}()
}

// recordOutput coalesces output chunks into whole lines before persisting.
func (b *Bridge) recordOutput(chunk string) {
	if b.rec == nil {
		return
	}
	b.pending.WriteString(chunk)
	if strings.HasSuffix(chunk, "\n") {
		b.flushPending()
	}
}

func (b *Bridge) flushPending() {
	if b.rec == nil || b.pending.Len() == 0 {
		return
	}
	body := strings.TrimRight(b.pending.String(), "\n")
	b.pending.Reset()
	if body == "" {
		return
	}
	b.record(RoleAssistant, body)
}

func (b *Bridge) record(role, body string) {
	if b.rec == nil {
		return
	}
	if err := b.rec.Record(role, body); err != nil {
		log.Printf("[bridge] history write failed: %v", err)
	}
}
