package backend

import "errors"

var (
	// ErrNotRunning is returned by Send when no live backend process exists.
	ErrNotRunning = errors.New("backend process is not running")
	// ErrAlreadyRunning is returned by Start when a live process exists.
	ErrAlreadyRunning = errors.New("backend process already running")
	// ErrAlreadyStarted is returned when Start is called twice on one Process.
	ErrAlreadyStarted = errors.New("process already started")
	// ErrNotStarted is returned by Wait when the process was never started.
	ErrNotStarted = errors.New("process not started")
)
