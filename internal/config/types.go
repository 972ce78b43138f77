package config

import "time"

// Config is the root configuration for gacc.
type Config struct {
	Commands CommandsConfig `yaml:"commands,omitempty"`
	Console  ConsoleConfig  `yaml:"console,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	IRC      *IRCConfig     `yaml:"irc,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// CommandsConfig controls module discovery.
type CommandsConfig struct {
	Dir             string        `yaml:"dir,omitempty"`       // defaults to <base>/commands
	Pattern         string        `yaml:"pattern,omitempty"`   // glob matched against file names
	Collision       string        `yaml:"collision,omitempty"` // "overwrite" | "reject"
	LoadTimeout     time.Duration `yaml:"loadTimeout,omitempty"`
	AllowedPackages []string      `yaml:"allowedPackages,omitempty"` // stdlib import paths modules may use
}

// ConsoleConfig controls line parsing and the interactive console.
type ConsoleConfig struct {
	SplitMode string `yaml:"splitMode,omitempty"` // "fields" | "strict" | "shell"
	Prompt    string `yaml:"prompt,omitempty"`
	Builtins  *bool  `yaml:"builtins,omitempty"` // help/reload; defaults to true
}

// BuiltinsEnabled reports whether the built-in console commands are registered.
func (c ConsoleConfig) BuiltinsEnabled() bool {
	return c.Builtins == nil || *c.Builtins
}

// HistoryConfig controls recording of dispatched lines.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Store   string `yaml:"store,omitempty"` // "sqlite" | "memory"
	Limit   int    `yaml:"limit,omitempty"` // default rows shown by `gacc history`
}

// GatewayConfig controls the WebSocket remote console.
type GatewayConfig struct {
	Enabled        bool        `yaml:"enabled,omitempty"`
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"`
}

// IRCConfig defines the IRC console bridge.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"`
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"`
	Owner    string   `yaml:"owner,omitempty"`  // only lines from this nick are dispatched
	Prefix   string   `yaml:"prefix,omitempty"` // defaults to "!"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
