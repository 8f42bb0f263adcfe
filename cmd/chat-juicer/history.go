package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickpeterson92/chat-juicer/internal/config"
	"github.com/nickpeterson92/chat-juicer/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List recorded chat sessions or dump one transcript",
	Long: `Browse the local transcript database.

Without arguments, lists recent sessions newest first.
With a session ID, prints that session's transcript.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum sessions to list")
}

// openHistory opens and migrates the transcript database for cfg.
func openHistory(cfg *config.Config) (*history.Store, error) {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		return dumpSession(store, args[0])
	}
	return listSessions(store)
}

func listSessions(store *history.Store) error {
	sessions, err := store.RecentSessions(historyLimit)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No recorded sessions yet.")
		return nil
	}

	for _, s := range sessions {
		state := "open"
		if s.EndedAt != nil {
			state = "ended " + s.EndedAt.Local().Format(time.DateTime)
		}
		profile := s.Profile
		if profile == "" {
			profile = "(default backend)"
		}
		fmt.Printf("%s  %s  %s  %s\n",
			s.ID,
			s.StartedAt.Local().Format(time.DateTime),
			profile,
			state,
		)
	}
	return nil
}

func dumpSession(store *history.Store, sessionID string) error {
	msgs, err := store.Messages(sessionID)
	if err != nil {
		return err
	}

	if len(msgs) == 0 {
		fmt.Println("No messages in session", sessionID)
		return nil
	}

	userColor := color.New(color.FgCyan, color.Bold)
	botColor := color.New(color.FgWhite)

	for _, m := range msgs {
		stamp := m.CreatedAt.Local().Format(time.TimeOnly)
		switch m.Role {
		case "user":
			fmt.Printf("%s %s %s\n", stamp, userColor.Sprint("you>"), m.Body)
		default:
			fmt.Printf("%s %s %s\n", stamp, botColor.Sprint("bot>"), m.Body)
		}
	}
	return nil
}
