package backend

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// State represents the supervisor lifecycle state.
type State string

const (
	// StateStopped means no backend process exists.
	StateStopped State = "stopped"
	// StateStarting means a spawn is in progress.
	StateStarting State = "starting"
	// StateRunning means a live backend process is accepting input.
	StateRunning State = "running"
	// StateRestarting means the old process is being torn down before a
	// new one is spawned.
	StateRestarting State = "restarting"
)

const (
	// defaultStopTimeout bounds how long Stop waits for a confirmed exit
	// after killing the process.
	defaultStopTimeout = 5 * time.Second

	eventBufferSize = 256
)

// Supervisor manages exactly one backend subprocess at a time and relays its
// I/O as events. All failures are converted into errors or events at this
// boundary; nothing propagates as an uncaught fault.
type Supervisor struct {
	spawn       Spawn
	emitter     *Emitter
	stopTimeout time.Duration

	mu            sync.Mutex
	state         State
	proc          *Process
	exited        chan struct{} // closed when the current process is confirmed gone
	stopRequested bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithStopTimeout overrides the bounded wait for process-exit confirmation.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// NewSupervisor creates a Supervisor that will launch processes per spawn.
func NewSupervisor(spawn Spawn, opts ...Option) *Supervisor {
	s := &Supervisor{
		spawn:       spawn,
		emitter:     NewEmitter(eventBufferSize),
		stopTimeout: defaultStopTimeout,
		state:       StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the read-only event channel consumed by the UI bridge.
func (s *Supervisor) Events() <-chan Event {
	return s.emitter.Events()
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the live backend process ID, or 0 when stopped.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if proc == nil {
		return 0
	}
	return proc.PID()
}

// Start spawns the backend subprocess and wires its streams to the event
// channel. Returns ErrAlreadyRunning if a process already exists; concurrent
// starts are disallowed.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StateStarting {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateStarting
	spawn := s.spawn
	s.mu.Unlock()

	proc := NewProcess(ctx)
	if err := proc.Start(spawn); err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		err = fmt.Errorf("spawn backend %q: %w", spawn.Command, err)
		s.emitter.Emit(Event{Type: EventError, Text: err.Error()})
		return err
	}

	exited := make(chan struct{})

	s.mu.Lock()
	s.proc = proc
	s.exited = exited
	s.stopRequested = false
	s.state = StateRunning
	s.mu.Unlock()

	log.Printf("[backend] started %s (pid %d)", spawn.Command, proc.PID())

	var relayWG sync.WaitGroup
	relayWG.Add(2)
	go s.forwardOutput(proc, &relayWG)
	go s.forwardStderr(proc, &relayWG)
	go s.watchExit(proc, &relayWG, exited)

	return nil
}

// forwardOutput relays stdout chunks verbatim, in order, as output events.
func (s *Supervisor) forwardOutput(proc *Process, wg *sync.WaitGroup) {
	defer wg.Done()
	pid := proc.PID()
	for chunk := range proc.Output() {
		s.emitter.Emit(Event{Type: EventOutput, Text: chunk, PID: pid})
	}
}

// forwardStderr relays stderr lines as a distinct error-channel signal.
// Forwarding (rather than inheriting the host terminal) keeps backend
// diagnostics visible inside the client.
func (s *Supervisor) forwardStderr(proc *Process, wg *sync.WaitGroup) {
	defer wg.Done()
	pid := proc.PID()
	for line := range proc.Stderr() {
		s.emitter.Emit(Event{Type: EventStderr, Text: line, PID: pid})
	}
}

// watchExit waits for the process to terminate and emits the disconnected
// signal exactly once per termination, after all buffered output has been
// forwarded.
func (s *Supervisor) watchExit(proc *Process, relayWG *sync.WaitGroup, exited chan struct{}) {
	pid := proc.PID()
	code, err := proc.Wait()

	// Drain buffered output before announcing the disconnect so the UI
	// never sees output attributed to a dead process.
	relayWG.Wait()

	s.mu.Lock()
	requested := s.stopRequested
	if s.proc == proc {
		s.proc = nil
		s.state = StateStopped
	}
	s.mu.Unlock()

	if !requested && err != nil {
		log.Printf("[backend] unexpected exit (pid %d, code %d): %v", pid, code, err)
	} else {
		log.Printf("[backend] exited (pid %d, code %d)", pid, code)
	}

	s.emitter.Emit(Event{Type: EventDisconnected, PID: pid, ExitCode: code})

	// Closing exited after the emit keeps restarted events ordered after
	// the disconnect of the instance they replace.
	close(exited)
}

// Stop terminates the backend process if one is running and waits for a
// confirmed exit, bounded by the stop timeout. Safe no-op when already
// stopped.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	proc := s.proc
	exited := s.exited
	if proc == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested = true
	s.mu.Unlock()

	if err := proc.Kill(); err != nil {
		log.Printf("[backend] kill failed: %v", err)
	}

	// Prefer an explicit exit confirmation over a fixed settle delay; the
	// timeout only bounds a backend that ignores the kill.
	select {
	case <-exited:
	case <-time.After(s.stopTimeout):
		log.Printf("[backend] stop: no exit confirmation within %s", s.stopTimeout)
	}
	return nil
}

// Restart fully stops the previous instance, then starts a new one and
// emits a single restarted event. Input sent during the restart window fails
// with ErrNotRunning; it is never delivered to the old process.
func (s *Supervisor) Restart(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRestarting || s.state == StateStarting {
		s.mu.Unlock()
		return fmt.Errorf("restart already in progress")
	}
	hadProc := s.proc != nil
	if hadProc {
		s.state = StateRestarting
	}
	s.mu.Unlock()

	if hadProc {
		if err := s.Stop(); err != nil {
			return err
		}
		s.mu.Lock()
		if s.state == StateRestarting {
			s.state = StateStopped
		}
		s.mu.Unlock()
	}

	if err := s.Start(ctx); err != nil {
		return err
	}

	s.emitter.Emit(Event{Type: EventRestarted, PID: s.PID()})
	return nil
}

// Send writes a line of user input to the backend's stdin. It returns
// ErrNotRunning when no live process exists; the caller is responsible for
// surfacing the failure to the user.
func (s *Supervisor) Send(line string) error {
	s.mu.Lock()
	proc := s.proc
	state := s.state
	s.mu.Unlock()

	if proc == nil || state != StateRunning {
		return ErrNotRunning
	}

	if err := proc.WriteLine(line); err != nil {
		// A write racing process exit is reported, not thrown.
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	return nil
}

// Shutdown stops any running backend and closes the event channel. The
// supervisor must not be reused afterwards.
func (s *Supervisor) Shutdown() {
	if err := s.Stop(); err != nil {
		log.Printf("[backend] shutdown: %v", err)
	}
	s.emitter.Close()
}
