package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickpeterson92/chat-juicer/internal/backend"
	"github.com/nickpeterson92/chat-juicer/internal/bridge"
	"github.com/nickpeterson92/chat-juicer/internal/config"
	"github.com/nickpeterson92/chat-juicer/internal/history"
	"github.com/nickpeterson92/chat-juicer/internal/tui"
)

func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	profiles, err := config.LoadProfiles("")
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	be, err := cfg.Resolve(profiles)
	if err != nil {
		return err
	}

	if err := CheckBackendCommand(be.Command); err != nil {
		return err
	}

	// Transcript persistence is best-effort: a broken database must not
	// keep the chat from opening.
	var recorder *history.SessionRecorder
	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.HistoryPath())
		if err != nil {
			log.Printf("[chat] history disabled: %v", err)
			store = nil
		}
		if store != nil {
			if err := store.Migrate(); err != nil {
				log.Printf("[chat] history disabled: %v", err)
				store.Close()
				store = nil
			}
		}
		if store != nil {
			defer store.Close()
			recorder, err = history.NewSessionRecorder(store, cfg.Profile)
			if err != nil {
				log.Printf("[chat] history disabled: %v", err)
				recorder = nil
			}
		}
	}

	sup := backend.NewSupervisor(backend.Spawn{
		Command: be.Command,
		Args:    be.Args,
		Dir:     be.Dir,
		Env:     be.Env,
	}, backend.WithStopTimeout(be.StopTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Suppress log output while TUI is active
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	program, app := tui.NewChatProgram(cfg.TUI.TranscriptLimit)

	var rec bridge.Recorder
	if recorder != nil {
		rec = recorder
	}
	br := bridge.New(sup, program, rec)

	// Submit and restart run async to avoid blocking the TUI event loop.
	app.SetSubmitHandler(func(text string) {
		go br.HandleInput(text)
	})
	app.SetRestartHandler(func() {
		br.HandleRestart(ctx)
	})

	// Spawn failures surface in the transcript via the bridge; the shell
	// stays open so the user can fix the backend and hit ctrl+r.
	if err := sup.Start(ctx); err == nil {
		app.MarkRunning(sup.PID())
	}

	go br.Run(ctx)

	// External control files: <data>/signals/restart and .../kill
	watcher, err := backend.NewSignalWatcher(config.DataDir(), backend.SignalHandlers{
		OnRestart: func() { br.HandleRestart(ctx) },
		OnKill:    func() { go sup.Stop() },
	})
	if err != nil {
		log.Printf("[chat] signal watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		log.Println("[chat] received shutdown signal")
		program.Quit()
	}()

	_, runErr := program.Run()

	// Scoped-resource release on every exit path: the backend never
	// outlives the shell.
	sup.Shutdown()
	cancel()

	if recorder != nil {
		if err := recorder.End(); err != nil {
			log.Printf("[chat] warning: failed to close session: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run TUI: %w", runErr)
	}
	return nil
}
