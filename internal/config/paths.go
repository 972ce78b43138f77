package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".gacc"

// Paths holds resolved filesystem paths for gacc data.
type Paths struct {
	Base     string // ~/.gacc
	Config   string // ~/.gacc/config.yaml
	Commands string // ~/.gacc/commands
	Logs     string // ~/.gacc/logs
	Data     string // ~/.gacc/data
}

// ResolvePaths computes all standard paths from the home directory.
// If GACC_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("GACC_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:     base,
		Config:   filepath.Join(base, "config.yaml"),
		Commands: filepath.Join(base, "commands"),
		Logs:     filepath.Join(base, "logs"),
		Data:     filepath.Join(base, "data"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.Base, p.Commands, p.Logs, p.Data}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// CommandsDir returns the module directory: the configured one, or the
// default under Base. A leading "~/" is expanded.
func (p Paths) CommandsDir(cfg Config) string {
	dir := cfg.Commands.Dir
	if dir == "" {
		return p.Commands
	}
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	return dir
}

// HistoryDB returns the SQLite history database path.
func (p Paths) HistoryDB() string {
	return filepath.Join(p.Data, "history.db")
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
