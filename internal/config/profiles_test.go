package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
		t.Fatalf("write profile %s: %v", name, err)
	}
}

func TestLoadProfiles_MissingDirGivesDefaults(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}

	if _, ok := profiles["python"]; !ok {
		t.Error("built-in python profile missing")
	}
	if _, ok := profiles["loopback"]; !ok {
		t.Error("built-in loopback profile missing")
	}
}

func TestLoadProfiles_ReadsYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "staging.yaml", `
description: staging assistant
command: python3
args: ["-u", "staging.py"]
env: ["STAGE=1"]
`)
	writeProfile(t, dir, "ignored.txt", "not a profile")

	profiles, err := LoadProfiles(dir)
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}

	p, ok := profiles["staging"]
	if !ok {
		t.Fatal("staging profile not loaded")
	}
	if p.Name != "staging" {
		t.Errorf("name = %q, want filename-derived staging", p.Name)
	}
	if p.Command != "python3" || len(p.Args) != 2 || p.Args[1] != "staging.py" {
		t.Errorf("profile launch = %s %v", p.Command, p.Args)
	}
	if len(p.Env) != 1 || p.Env[0] != "STAGE=1" {
		t.Errorf("profile env = %v", p.Env)
	}

	// Built-ins survive alongside user profiles.
	if _, ok := profiles["loopback"]; !ok {
		t.Error("built-in loopback profile missing")
	}
}

func TestLoadProfiles_ExplicitNameWins(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "anything.yaml", `
name: custom
command: cat
`)

	profiles, err := LoadProfiles(dir)
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}
	if _, ok := profiles["custom"]; !ok {
		t.Error("profile not keyed by its explicit name")
	}
	if _, ok := profiles["anything"]; ok {
		t.Error("profile should not also be keyed by filename")
	}
}

func TestLoadProfiles_MissingCommandRejected(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "broken.yaml", `
description: no command here
`)

	if _, err := LoadProfiles(dir); err == nil {
		t.Fatal("expected error for a profile without a command")
	}
}

func TestResolve_NoProfileUsesBackendSection(t *testing.T) {
	cfg := &Config{
		Backend: BackendConfig{Command: "python3", Args: []string{"-u", "bot.py"}},
	}

	be, err := cfg.Resolve(DefaultProfiles())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if be.Command != "python3" || be.Args[1] != "bot.py" {
		t.Errorf("resolved launch = %s %v", be.Command, be.Args)
	}
}

func TestResolve_ProfileOverridesLaunch(t *testing.T) {
	cfg := &Config{
		Backend: BackendConfig{
			Command: "python3",
			Args:    []string{"-u", "bot.py"},
			Env:     []string{"BASE=1"},
		},
		Profile: "loopback",
	}

	be, err := cfg.Resolve(DefaultProfiles())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if be.Command != "cat" {
		t.Errorf("resolved command = %s, want cat", be.Command)
	}
	if len(be.Env) != 1 || be.Env[0] != "BASE=1" {
		t.Errorf("resolved env = %v, want base env preserved", be.Env)
	}
}

func TestResolve_UnknownProfileErrors(t *testing.T) {
	cfg := &Config{Profile: "missing"}

	if _, err := cfg.Resolve(DefaultProfiles()); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}
