package dispatch

import (
	"fmt"
	"strings"
	"unicode"

	"mvdan.cc/sh/v3/shell"
)

// SplitMode selects how the text after the command name becomes arguments.
type SplitMode string

const (
	// SplitFields separates on any whitespace run and drops empty tokens.
	SplitFields SplitMode = "fields"
	// SplitStrict separates on single spaces and keeps empty tokens.
	SplitStrict SplitMode = "strict"
	// SplitShell applies POSIX shell quoting rules.
	SplitShell SplitMode = "shell"
)

// ParseSplitMode maps a config value to a SplitMode. Unknown values fall
// back to SplitFields.
func ParseSplitMode(s string) SplitMode {
	switch SplitMode(s) {
	case SplitStrict:
		return SplitStrict
	case SplitShell:
		return SplitShell
	default:
		return SplitFields
	}
}

// Invocation is a parsed line: the command name and its arguments.
type Invocation struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
	Raw  string   `json:"raw"`
}

// Parse splits line into an Invocation. It returns false when the line is
// blank. The name is everything up to the first whitespace; a quoting
// error in shell mode is returned with Name already set.
func Parse(line string, mode SplitMode) (Invocation, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Invocation{}, false, nil
	}

	inv := Invocation{Raw: line, Args: []string{}}
	cut := strings.IndexFunc(trimmed, unicode.IsSpace)
	if cut < 0 {
		inv.Name = trimmed
		return inv, true, nil
	}
	inv.Name = trimmed[:cut]
	tail := strings.TrimLeftFunc(trimmed[cut:], unicode.IsSpace)

	switch mode {
	case SplitStrict:
		inv.Args = strings.Split(tail, " ")
	case SplitShell:
		args, err := shell.Fields(tail, func(string) string { return "" })
		if err != nil {
			return inv, true, fmt.Errorf("parsing arguments: %w", err)
		}
		if args != nil {
			inv.Args = args
		}
	default:
		inv.Args = strings.Fields(tail)
	}
	return inv, true, nil
}
