package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const healModule = `package main

import (
	"errors"
	"strings"

	"github.com/soyeahso/gacc/pkg/command"
)

func Commands(env command.Env) []command.Command {
	return []command.Command{
		{
			Name:  "heal",
			Usage: "heal <amount>",
			Run: func(args []string) error {
				env.Print("healed " + strings.Join(args, " "))
				return nil
			},
		},
		{
			Name: "smite",
			Run:  func(args []string) error { return errors.New("no target") },
		},
	}
}
`

// testHome points GACC_HOME at a temp dir holding the heal module and
// the given config file contents.
func testHome(t *testing.T, configYAML string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("GACC_HOME", home)
	t.Setenv("GACC_LOG_LEVEL", "silent")
	t.Setenv("GACC_COMMANDS_DIR", "")
	t.Setenv("GACC_GATEWAY_TOKEN", "")

	dir := filepath.Join(home, "commands")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heal.go"), []byte(healModule), 0o600))
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(configYAML), 0o600))
	}
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	testHome(t, "")
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "gacc "))
}

func TestExecCmd(t *testing.T) {
	testHome(t, "")

	out, err := run(t, "", "exec", "heal", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "healed 5")

	out, err = run(t, "", "exec", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.Contains(t, out, "unknown command: nope")

	out, err = run(t, "", "exec", "smite")
	require.Error(t, err)
	assert.Contains(t, out, "command smite failed: no target")
}

func TestExecCmd_RequiresLine(t *testing.T) {
	testHome(t, "")
	_, err := run(t, "", "exec")
	assert.Error(t, err)
}

func TestCommandsCmd(t *testing.T) {
	testHome(t, "")

	out, err := run(t, "", "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "help")
	assert.Contains(t, out, "heal <amount>")
	assert.Contains(t, out, "smite")
}

func TestCommandsCmd_JSON(t *testing.T) {
	testHome(t, "")

	out, err := run(t, "", "commands", "--json")
	require.NoError(t, err)

	var infos []commandInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	names := make([]string, 0, len(infos))
	for _, c := range infos {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"help", "reload", "heal", "smite"}, names)
	assert.Equal(t, "builtin", infos[0].Module)
}

func TestCommandsCmd_ReportsModuleErrors(t *testing.T) {
	home := testHome(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(home, "commands", "broken.go"), []byte("package main\nfunc ("), 0o600))

	out, err := run(t, "", "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "1 module error(s)")
	assert.Contains(t, out, "broken.go")
}

func TestHistoryCmd(t *testing.T) {
	testHome(t, "history:\n  enabled: true\n")

	_, err := run(t, "", "exec", "heal", "5")
	require.NoError(t, err)
	_, err = run(t, "", "exec", "nope")
	require.Error(t, err)

	out, err := run(t, "", "history")
	require.NoError(t, err)
	heal := strings.Index(out, "heal 5")
	nope := strings.Index(out, "nope")
	require.GreaterOrEqual(t, heal, 0)
	require.GreaterOrEqual(t, nope, 0)
	assert.Less(t, heal, nope, "oldest entry is printed first")
	assert.Contains(t, out, "(exec)")
	assert.Contains(t, out, "unknown command: nope")

	out, err = run(t, "", "history", "--json", "-n", "1")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "nope", entries[0]["line"])
}

func TestHistoryCmd_Disabled(t *testing.T) {
	testHome(t, "")
	_, err := run(t, "", "history")
	assert.ErrorIs(t, err, errHistoryDisabled)
}

func TestConsoleCmd_REPL(t *testing.T) {
	testHome(t, "")

	out, err := run(t, "heal 3\nnope\n", "console")
	require.NoError(t, err)
	assert.Contains(t, out, "healed 3")
	assert.Contains(t, out, "unknown command: nope")
	assert.Contains(t, out, "4 commands")
}

func TestConsoleCmd_HeadlessNeedsFrontend(t *testing.T) {
	testHome(t, "")
	_, err := run(t, "", "console", "--headless")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--headless")
}

func TestConsoleCmd_InvalidConfig(t *testing.T) {
	testHome(t, "gateway:\n  enabled: true\n")
	_, err := run(t, "", "console")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestConfigCmds(t *testing.T) {
	home := testHome(t, "gateway:\n  port: 19000\n  auth:\n    token: secret\n")

	out, err := run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)

	out, err = run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 19000")
	assert.NotContains(t, out, "secret")

	out, err = run(t, "", "config", "get", "gateway.port")
	require.NoError(t, err)
	assert.Equal(t, "19000\n", out)

	_, err = run(t, "", "config", "get", "gateway.missing")
	assert.Error(t, err)

	out, err = run(t, "", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestConfigValidate_Issues(t *testing.T) {
	testHome(t, "console:\n  splitMode: bogus\n")

	out, err := run(t, "", "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "console.splitMode")
}

func TestStatusCmd(t *testing.T) {
	testHome(t, "")

	out, err := run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not found, using defaults")
	assert.Contains(t, out, "1 module(s), 4 commands, 0 error(s)")
	assert.Contains(t, out, "Gateway:  (disabled)")
}
