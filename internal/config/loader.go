package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so passwords and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	if cfg.IRC != nil {
		cfg.IRC.Password = expandEnvVars(cfg.IRC.Password)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Commands.Pattern == "" {
		cfg.Commands.Pattern = DefaultPattern
	}
	if cfg.Commands.Collision == "" {
		cfg.Commands.Collision = "overwrite"
	}
	if cfg.Commands.LoadTimeout == 0 {
		cfg.Commands.LoadTimeout = DefaultLoadTimeout
	}
	if len(cfg.Commands.AllowedPackages) == 0 {
		cfg.Commands.AllowedPackages = append([]string(nil), DefaultAllowedPackages...)
	}
	if cfg.Console.SplitMode == "" {
		cfg.Console.SplitMode = "fields"
	}
	if cfg.Console.Prompt == "" {
		cfg.Console.Prompt = DefaultPrompt
	}
	if cfg.History.Store == "" {
		cfg.History.Store = "sqlite"
	}
	if cfg.History.Limit == 0 {
		cfg.History.Limit = DefaultHistoryRows
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultGatewayPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.IRC != nil && cfg.IRC.Prefix == "" {
		cfg.IRC.Prefix = DefaultIRCPrefix
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides applies GACC_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GACC_COMMANDS_DIR"); v != "" {
		cfg.Commands.Dir = v
	}
	if v := os.Getenv("GACC_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("GACC_GATEWAY_TOKEN"); v != "" && cfg.Gateway.Auth.Token == "" {
		cfg.Gateway.Auth.Token = v
	}
	if v := os.Getenv("GACC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
