package backend

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SignalHandlers receives control-file notifications.
// Handlers are invoked from the watcher goroutine and must not block.
type SignalHandlers struct {
	// OnRestart is called when a "restart" file appears in the signals dir.
	OnRestart func()
	// OnKill is called when a "kill" file appears in the signals dir.
	OnKill func()
}

// SignalWatcher lets external tooling poke a running client by dropping
// control files into <dataDir>/signals: "restart" requests a backend
// restart, "kill" requests a stop.
type SignalWatcher struct {
	signalsDir string
	handlers   SignalHandlers

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates the signals directory under dataDir and starts
// watching it. A watcher setup failure is not fatal; the returned watcher is
// inert and polling via HasSignal still works.
func NewSignalWatcher(dataDir string, handlers SignalHandlers) (*SignalWatcher, error) {
	signalsDir := filepath.Join(dataDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		signalsDir: signalsDir,
		handlers:   handlers,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - callers can poll HasSignal
		return sw, nil
	}
	sw.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sw.watcher = nil
		return sw, nil
	}

	go sw.watch()

	return sw, nil
}

// watch monitors the signals directory for restart/kill files.
func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Write == 0 {
				continue
			}
			switch filepath.Base(event.Name) {
			case "restart":
				os.Remove(event.Name)
				if sw.handlers.OnRestart != nil {
					sw.handlers.OnRestart()
				}
			case "kill":
				os.Remove(event.Name)
				if sw.handlers.OnKill != nil {
					sw.handlers.OnKill()
				}
			}
		case <-sw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// HasSignal reports whether the named signal file currently exists, for
// callers polling without a live watcher. The file is consumed.
func (sw *SignalWatcher) HasSignal(name string) bool {
	path := filepath.Join(sw.signalsDir, name)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	os.Remove(path)
	return true
}

// Raise creates a signal file, for tests and sibling processes.
func (sw *SignalWatcher) Raise(name string) error {
	return os.WriteFile(filepath.Join(sw.signalsDir, name), []byte("1\n"), 0644)
}

// Dir returns the watched signals directory.
func (sw *SignalWatcher) Dir() string {
	return sw.signalsDir
}

// Close shuts down the signal watcher.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
