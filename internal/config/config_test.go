package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFromPath_Defaults(t *testing.T) {
	path := writeTempConfig(t, "")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Backend.Command != "python3" {
		t.Errorf("backend.command = %s, want python3", cfg.Backend.Command)
	}
	if len(cfg.Backend.Args) != 2 || cfg.Backend.Args[0] != "-u" || cfg.Backend.Args[1] != "src/main.py" {
		t.Errorf("backend.args = %v, want [-u src/main.py]", cfg.Backend.Args)
	}
	if cfg.Backend.StopTimeout != 5*time.Second {
		t.Errorf("backend.stop_timeout = %s, want 5s", cfg.Backend.StopTimeout)
	}
	if cfg.TUI.TranscriptLimit != 500 {
		t.Errorf("tui.transcript_limit = %d, want 500", cfg.TUI.TranscriptLimit)
	}
	if !cfg.History.Enabled {
		t.Error("history.enabled should default to true")
	}
	if cfg.Profile != "" {
		t.Errorf("profile = %q, want empty", cfg.Profile)
	}
}

func TestLoadFromPath_Overrides(t *testing.T) {
	path := writeTempConfig(t, `
backend:
  command: /opt/venv/bin/python
  args: ["-u", "app.py"]
  dir: /srv/assistant
  env: ["LOG_LEVEL=debug"]
  stop_timeout: 2s
tui:
  transcript_limit: 50
history:
  enabled: false
  path: /tmp/custom.db
profile: loopback
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Backend.Command != "/opt/venv/bin/python" {
		t.Errorf("backend.command = %s", cfg.Backend.Command)
	}
	if cfg.Backend.Dir != "/srv/assistant" {
		t.Errorf("backend.dir = %s", cfg.Backend.Dir)
	}
	if len(cfg.Backend.Env) != 1 || cfg.Backend.Env[0] != "LOG_LEVEL=debug" {
		t.Errorf("backend.env = %v", cfg.Backend.Env)
	}
	if cfg.Backend.StopTimeout != 2*time.Second {
		t.Errorf("backend.stop_timeout = %s, want 2s", cfg.Backend.StopTimeout)
	}
	if cfg.TUI.TranscriptLimit != 50 {
		t.Errorf("tui.transcript_limit = %d, want 50", cfg.TUI.TranscriptLimit)
	}
	if cfg.History.Enabled {
		t.Error("history.enabled should be false")
	}
	if cfg.Profile != "loopback" {
		t.Errorf("profile = %q, want loopback", cfg.Profile)
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := &Config{}
	if got := cfg.HistoryPath(); !strings.HasSuffix(got, filepath.Join("chat-juicer", "history.db")) {
		t.Errorf("default HistoryPath = %s, want .../chat-juicer/history.db", got)
	}

	cfg.History.Path = "/tmp/override.db"
	if got := cfg.HistoryPath(); got != "/tmp/override.db" {
		t.Errorf("override HistoryPath = %s", got)
	}
}

func TestDataDir_RespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	want := filepath.Join(dir, "chat-juicer")
	if got := DataDir(); got != want {
		t.Errorf("DataDir = %s, want %s", got, want)
	}
}

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "chat-juicer", "config.yaml")
	if got := GetUserConfigPath(); got != want {
		t.Errorf("GetUserConfigPath = %s, want %s", got, want)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{
		Backend: BackendConfig{
			Command:     "python3",
			Args:        []string{"-u", "bot.py"},
			StopTimeout: 3 * time.Second,
		},
		TUI:     TUIConfig{TranscriptLimit: 100},
		History: HistoryConfig{Enabled: true},
		Profile: "python",
	}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if loaded.Backend.Command != "python3" {
		t.Errorf("backend.command = %s", loaded.Backend.Command)
	}
	if len(loaded.Backend.Args) != 2 || loaded.Backend.Args[1] != "bot.py" {
		t.Errorf("backend.args = %v", loaded.Backend.Args)
	}
	if loaded.Backend.StopTimeout != 3*time.Second {
		t.Errorf("backend.stop_timeout = %s, want 3s", loaded.Backend.StopTimeout)
	}
	if loaded.TUI.TranscriptLimit != 100 {
		t.Errorf("tui.transcript_limit = %d, want 100", loaded.TUI.TranscriptLimit)
	}
	if loaded.Profile != "python" {
		t.Errorf("profile = %q, want python", loaded.Profile)
	}
}
