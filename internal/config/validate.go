package config

import (
	"fmt"
	"path/filepath"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Commands validation
	if cfg.Commands.Pattern != "" {
		if _, err := filepath.Match(cfg.Commands.Pattern, ""); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "commands.pattern",
				Message: fmt.Sprintf("invalid glob %q: %v", cfg.Commands.Pattern, err),
			})
		}
	}

	validCollisions := []string{"overwrite", "reject"}
	if cfg.Commands.Collision != "" && !slices.Contains(validCollisions, cfg.Commands.Collision) {
		issues = append(issues, ValidationIssue{
			Path:    "commands.collision",
			Message: fmt.Sprintf("must be one of %v, got %q", validCollisions, cfg.Commands.Collision),
		})
	}

	if cfg.Commands.LoadTimeout < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "commands.loadTimeout",
			Message: fmt.Sprintf("must not be negative, got %s", cfg.Commands.LoadTimeout),
		})
	}

	// Console validation
	validSplitModes := []string{"fields", "strict", "shell"}
	if cfg.Console.SplitMode != "" && !slices.Contains(validSplitModes, cfg.Console.SplitMode) {
		issues = append(issues, ValidationIssue{
			Path:    "console.splitMode",
			Message: fmt.Sprintf("must be one of %v, got %q", validSplitModes, cfg.Console.SplitMode),
		})
	}

	// History validation
	validStores := []string{"sqlite", "memory"}
	if cfg.History.Store != "" && !slices.Contains(validStores, cfg.History.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "history.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.History.Store),
		})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	if cfg.Gateway.Enabled && cfg.Gateway.Auth.Token == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.token",
			Message: "required when the gateway is enabled",
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	// IRC validation
	if cfg.IRC != nil {
		if cfg.IRC.Server == "" {
			issues = append(issues, ValidationIssue{
				Path:    "irc.server",
				Message: "server is required",
			})
		}
		if cfg.IRC.Nick == "" {
			issues = append(issues, ValidationIssue{
				Path:    "irc.nick",
				Message: "nick is required",
			})
		}
		if cfg.IRC.Owner == "" {
			issues = append(issues, ValidationIssue{
				Path:    "irc.owner",
				Message: "owner is required so only one nick can run commands",
			})
		}
		if cfg.IRC.Port < 0 || cfg.IRC.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "irc.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.IRC.Port),
			})
		}
	}

	return issues
}
