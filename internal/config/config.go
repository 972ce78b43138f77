package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults for values that have no natural zero.
const (
	DefaultPattern     = "*.go"
	DefaultLoadTimeout = 10 * time.Second
	DefaultGatewayPort = 18790
	DefaultPrompt      = "> "
	DefaultIRCPrefix   = "!"
	DefaultHistoryRows = 20
)

// DefaultAllowedPackages is the stdlib surface visible to command modules.
var DefaultAllowedPackages = []string{
	"errors",
	"fmt",
	"math",
	"math/rand",
	"regexp",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode/utf8",
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Commands: CommandsConfig{
			Pattern:         DefaultPattern,
			Collision:       "overwrite",
			LoadTimeout:     DefaultLoadTimeout,
			AllowedPackages: append([]string(nil), DefaultAllowedPackages...),
		},
		Console: ConsoleConfig{
			SplitMode: "fields",
			Prompt:    DefaultPrompt,
		},
		History: HistoryConfig{
			Store: "sqlite",
			Limit: DefaultHistoryRows,
		},
		Gateway: GatewayConfig{
			Port: DefaultGatewayPort,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
