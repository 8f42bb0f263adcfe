package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nickpeterson92/chat-juicer/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the backend and local state are usable",
	Long: `Verify the chat-juicer environment:

- the configured backend command resolves in PATH
- the active profile (if any) exists
- the data directory is writable
- the transcript database opens`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printStatus("✗", fmt.Sprintf("Config unreadable: %v", err), color.FgRed)
		return err
	}
	printStatus("✓", "Config loaded from "+config.GetUserConfigPath(), color.FgGreen)

	profiles, err := config.LoadProfiles("")
	if err != nil {
		printStatus("✗", fmt.Sprintf("Profiles unreadable: %v", err), color.FgRed)
		return err
	}

	be, err := cfg.Resolve(profiles)
	if err != nil {
		printStatus("✗", err.Error(), color.FgRed)
		return err
	}
	if cfg.Profile != "" {
		printStatus("✓", "Profile "+cfg.Profile+" found", color.FgGreen)
	}

	if _, err := exec.LookPath(be.Command); err != nil {
		printStatus("✗", fmt.Sprintf("Backend command %q not found in PATH", be.Command), color.FgRed)
		return fmt.Errorf("backend command not found: %s", be.Command)
	}
	printStatus("✓", "Backend command "+be.Command+" found", color.FgGreen)

	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		printStatus("✗", fmt.Sprintf("Data directory not writable: %v", err), color.FgRed)
		return err
	}
	printStatus("✓", "Data directory "+dataDir+" writable", color.FgGreen)

	if !cfg.History.Enabled {
		printStatus("⚠", "History disabled (history.enabled = false)", color.FgYellow)
	} else if err := checkHistory(cfg); err != nil {
		printStatus("✗", fmt.Sprintf("Transcript database: %v", err), color.FgRed)
		return err
	} else {
		printStatus("✓", "Transcript database opens at "+cfg.HistoryPath(), color.FgGreen)
	}

	fmt.Printf("\n%s chat-juicer is ready!\n", color.GreenString("✓"))
	return nil
}

func checkHistory(cfg *config.Config) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	return store.Close()
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
