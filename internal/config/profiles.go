package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is a named backend launch definition loaded from YAML.
type Profile struct {
	// Name identifies the profile; defaults to the file name.
	Name string `yaml:"name"`
	// Description is shown by `chat-juicer config profiles`.
	Description string `yaml:"description"`
	Command     string `yaml:"command"`
	Args        []string `yaml:"args"`
	Dir         string   `yaml:"dir"`
	Env         []string `yaml:"env"`
}

// Profiles holds all loaded backend profiles, keyed by name.
type Profiles map[string]*Profile

// LoadProfiles loads backend profiles from profilesDir (every *.yaml file).
// If profilesDir is empty it defaults to "profiles" under the user config
// directory. A missing directory is not an error; built-in defaults are
// returned instead.
func LoadProfiles(profilesDir string) (Profiles, error) {
	if profilesDir == "" {
		profilesDir = filepath.Join(getUserConfigDir(), "profiles")
	}

	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfiles(), nil
		}
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}

	profiles := DefaultProfiles()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(profilesDir, entry.Name())
		p, err := loadProfile(path)
		if err != nil {
			return nil, fmt.Errorf("load profile %s: %w", entry.Name(), err)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(entry.Name(), ".yaml")
		}
		profiles[p.Name] = p
	}

	return profiles, nil
}

// loadProfile loads a single profile from a YAML file.
func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", path, err)
	}
	if p.Command == "" {
		return nil, fmt.Errorf("%s: profile is missing a command", path)
	}

	return p, nil
}

// DefaultProfiles returns the built-in backend profiles.
// This is used as a fallback when no YAML files are available.
func DefaultProfiles() Profiles {
	return Profiles{
		"python": {
			Name:        "python",
			Description: "Python assistant backend (src/main.py)",
			Command:     "python3",
			Args:        []string{"-u", "src/main.py"},
		},
		"loopback": {
			Name:        "loopback",
			Description: "cat(1) echo backend for smoke testing the chat shell",
			Command:     "cat",
		},
	}
}

// Resolve returns the backend launch settings for cfg: the named profile
// when cfg.Profile is set, the backend section otherwise.
func (c *Config) Resolve(profiles Profiles) (BackendConfig, error) {
	if c.Profile == "" {
		return c.Backend, nil
	}

	p, ok := profiles[c.Profile]
	if !ok {
		return BackendConfig{}, fmt.Errorf("unknown backend profile %q", c.Profile)
	}

	be := c.Backend
	be.Command = p.Command
	be.Args = p.Args
	if p.Dir != "" {
		be.Dir = p.Dir
	}
	be.Env = append(append([]string{}, be.Env...), p.Env...)
	return be, nil
}
