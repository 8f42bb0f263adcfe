// Package backend manages the assistant backend subprocess for chat-juicer.
// The backend is an external program (canonically a Python assistant) spoken
// to over a line-oriented stdio channel: one line of user text in, arbitrary
// text chunks out.
package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Spawn describes how to launch the backend subprocess.
type Spawn struct {
	// Command is the executable to run (e.g., "python3").
	Command string
	// Args are the arguments passed to the command.
	Args []string
	// Dir is the working directory; empty means inherit.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// Process is a single backend subprocess instance. It owns the process
// handle and its three standard streams; a Process is started at most once
// and never reused across restarts.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	ctx      context.Context
	cancel   context.CancelFunc
	outputCh chan string
	stderrCh chan string
	once     sync.Once
	mu       sync.Mutex
	started  bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewProcess creates a new Process with the given context.
// The context is used for kill-on-cancel teardown.
func NewProcess(ctx context.Context) *Process {
	ctx, cancel := context.WithCancel(ctx)
	return &Process{
		ctx:      ctx,
		cancel:   cancel,
		outputCh: make(chan string, 100),
		stderrCh: make(chan string, 100),
		done:     make(chan struct{}),
	}
}

// Start launches the backend subprocess described by spawn.
// The child is forced into unbuffered-output mode so chunks arrive promptly
// rather than being held until a stdio buffer fills.
func (p *Process) Start(spawn Spawn) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}

	p.cmd = exec.CommandContext(p.ctx, spawn.Command, spawn.Args...)
	if spawn.Dir != "" {
		p.cmd.Dir = spawn.Dir
	}

	// PYTHONUNBUFFERED covers the canonical Python backend; profile env can
	// add equivalents for other runtimes (e.g., NODE_DISABLE_COLORS).
	env := append(os.Environ(), "PYTHONUNBUFFERED=1")
	env = append(env, spawn.Env...)
	p.cmd.Env = env

	var err error
	p.stdin, err = p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	p.stdout, err = p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	p.stderr, err = p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}

	p.started = true

	// Start goroutines to read output
	p.wg.Add(2)
	go p.readOutput()
	go p.readStderr()
	go p.closeOnDrain()

	return nil
}

// readOutput relays stdout to the output channel as raw chunks.
// Chunks are not reassembled into lines: the wire contract treats stdout as
// an opaque text stream and leaves structural parsing to the presentation
// layer. Pipe reads preserve write order, so chunk order is preserved.
func (p *Process) readOutput() {
	defer p.wg.Done()
	defer close(p.outputCh)

	buf := make([]byte, 32*1024)
	for {
		n, err := p.stdout.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			select {
			case p.outputCh <- chunk:
			case <-p.ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// readStderr reads stderr line by line and relays it on the stderr channel.
// Lines that cannot be delivered without blocking are dropped rather than
// allowed to stall process teardown.
func (p *Process) readStderr() {
	defer p.wg.Done()
	defer close(p.stderrCh)

	scanner := bufio.NewScanner(p.stderr)
	buf := make([]byte, 16*1024)
	scanner.Buffer(buf, 256*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case p.stderrCh <- line:
		case <-p.ctx.Done():
			return
		default:
		}
	}
}

// closeOnDrain closes done once both stream readers have finished, which
// happens when the pipes hit EOF on process exit.
func (p *Process) closeOnDrain() {
	p.wg.Wait()
	close(p.done)
}

// Output returns a channel that receives stdout chunks from the process.
// The channel is closed when the process exits or is killed.
func (p *Process) Output() <-chan string {
	return p.outputCh
}

// Stderr returns a channel that receives stderr lines from the process.
func (p *Process) Stderr() <-chan string {
	return p.stderrCh
}

// WriteLine writes one line of user input plus a newline terminator to the
// subprocess's stdin. A write that races with process exit fails with an
// error rather than panicking.
func (p *Process) WriteLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrNotStarted
	}

	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write to backend stdin: %w", err)
	}
	return nil
}

// Wait waits for the process to exit and returns its exit code along with
// any error from Wait. The exit code is -1 when the process was killed or
// never ran to completion.
func (p *Process) Wait() (int, error) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return -1, ErrNotStarted
	}
	p.mu.Unlock()

	// Wait for the stream readers so cmd.Wait doesn't close the pipes
	// underneath them.
	<-p.done

	err := p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	return code, err
}

// Kill terminates the process immediately. Safe to call multiple times and
// before Start.
func (p *Process) Kill() error {
	p.once.Do(func() {
		p.cancel()
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.cmd.Process == nil {
		return nil
	}

	return p.cmd.Process.Kill()
}

// PID returns the process ID of the subprocess, or 0 if not started.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Pid
	}
	return 0
}
