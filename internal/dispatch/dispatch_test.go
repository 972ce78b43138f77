package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/gacc/internal/hooks"
	"github.com/soyeahso/gacc/internal/logging"
	"github.com/soyeahso/gacc/internal/registry"
	"github.com/soyeahso/gacc/pkg/command"
)

type call struct {
	name string
	args []string
}

func testRegistry(t *testing.T, calls *[]call, extra ...registry.Descriptor) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder(registry.Overwrite)
	record := func(name string) command.Handler {
		return func(args []string) error {
			*calls = append(*calls, call{name: name, args: args})
			return nil
		}
	}
	require.NoError(t, b.Add(registry.Descriptor{Name: "heal", Handler: record("heal")}))
	for _, d := range extra {
		require.NoError(t, b.Add(d))
	}
	return b.Build()
}

func newDispatcher(reg *registry.Registry, hm *hooks.Manager, log *logging.Logger) *Dispatcher {
	return New(func() *registry.Registry { return reg }, SplitFields, hm, log)
}

func TestDispatch_RunsCommandWithArgs(t *testing.T) {
	var calls []call
	d := newDispatcher(testRegistry(t, &calls), nil, logging.New(nil, "silent"))

	res := d.Dispatch(context.Background(), "heal 100")
	assert.Equal(t, StatusOK, res.Status)
	assert.True(t, res.OK())
	assert.Empty(t, res.Message)
	assert.Equal(t, "heal", res.Command)
	assert.Equal(t, []string{"100"}, res.Args)
	_, err := uuid.Parse(res.ID)
	assert.NoError(t, err)

	res = d.Dispatch(context.Background(), "heal")
	assert.Equal(t, StatusOK, res.Status)

	require.Len(t, calls, 2)
	assert.Equal(t, call{"heal", []string{"100"}}, calls[0])
	assert.Equal(t, call{"heal", []string{}}, calls[1])
}

func TestDispatch_BlankLineDoesNothing(t *testing.T) {
	var buf bytes.Buffer
	looked := 0
	reg := registry.Empty()
	d := New(func() *registry.Registry {
		looked++
		return reg
	}, SplitFields, nil, logging.New(&buf, "debug"))

	for _, line := range []string{"", "   "} {
		res := d.Dispatch(context.Background(), line)
		assert.Equal(t, StatusEmpty, res.Status)
		assert.Empty(t, res.Message)
	}
	assert.Zero(t, looked)
	assert.Empty(t, buf.String())
}

func TestDispatch_UnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	var calls []call
	reg := testRegistry(t, &calls)
	d := newDispatcher(reg, nil, logging.New(&buf, "info"))

	res := d.Dispatch(context.Background(), "frobnicate now")
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, "unknown command: frobnicate", res.Message)
	assert.Empty(t, calls)
	assert.Equal(t, []string{"heal"}, reg.Names())
	assert.Contains(t, buf.String(), "unknown command")
}

func TestDispatch_LookupIsCaseSensitive(t *testing.T) {
	var calls []call
	d := newDispatcher(testRegistry(t, &calls), nil, logging.New(nil, "silent"))

	res := d.Dispatch(context.Background(), "HEAL 1")
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Empty(t, calls)
}

func TestDispatch_HandlerErrorIsReported(t *testing.T) {
	var buf bytes.Buffer
	var calls []call
	boom := errors.New("target not found")
	reg := testRegistry(t, &calls, registry.Descriptor{
		Name:    "smite",
		Handler: func([]string) error { return boom },
	})
	d := newDispatcher(reg, nil, logging.New(&buf, "info"))

	var res Result
	assert.NotPanics(t, func() { res = d.Dispatch(context.Background(), "smite goblin") })
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "command smite failed: target not found", res.Message)
	assert.ErrorIs(t, res.Err, boom)
	assert.Contains(t, buf.String(), "command failed")
	assert.Contains(t, buf.String(), `"command":"smite"`)
}

func TestDispatch_HandlerPanicIsReported(t *testing.T) {
	var calls []call
	reg := testRegistry(t, &calls, registry.Descriptor{
		Name:    "crash",
		Handler: func([]string) error { panic("index out of range") },
	})
	d := newDispatcher(reg, nil, logging.New(nil, "silent"))

	var res Result
	assert.NotPanics(t, func() { res = d.Dispatch(context.Background(), "crash") })
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "command crash failed: panic: index out of range", res.Message)

	var pe *PanicError
	assert.ErrorAs(t, res.Err, &pe)

	res = d.Dispatch(context.Background(), "heal 1")
	assert.Equal(t, StatusOK, res.Status, "dispatcher still usable after a panic")
}

func TestDispatch_ShellQuoteErrorFails(t *testing.T) {
	var calls []call
	reg := testRegistry(t, &calls)
	d := New(func() *registry.Registry { return reg }, SplitShell, nil, logging.New(nil, "silent"))

	res := d.Dispatch(context.Background(), `heal "100`)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Message, "command heal failed: parsing arguments")
	assert.Empty(t, calls)
}

func TestDispatch_SeesSwappedRegistry(t *testing.T) {
	var calls []call
	current := registry.Empty()
	d := New(func() *registry.Registry { return current }, SplitFields, nil, logging.New(nil, "silent"))

	assert.Equal(t, StatusUnknown, d.Dispatch(context.Background(), "heal").Status)
	current = testRegistry(t, &calls)
	assert.Equal(t, StatusOK, d.Dispatch(context.Background(), "heal").Status)
}

func TestDispatch_EmitsHooks(t *testing.T) {
	var calls []call
	hm := hooks.NewManager(logging.New(nil, "silent"))

	var before []string
	var after []Result
	hm.On(hooks.EventBeforeDispatch, "t", func(_ context.Context, p hooks.Payload) error {
		before = append(before, p.Data["command"].(string))
		return nil
	})
	hm.On(hooks.EventAfterDispatch, "t", func(_ context.Context, p hooks.Payload) error {
		after = append(after, p.Data["result"].(Result))
		return nil
	})

	d := newDispatcher(testRegistry(t, &calls), hm, logging.New(nil, "silent"))
	d.Dispatch(context.Background(), "heal 5")
	d.Dispatch(context.Background(), "nope")
	d.Dispatch(context.Background(), "  ")

	assert.Equal(t, []string{"heal", "nope"}, before)
	require.Len(t, after, 2)
	assert.Equal(t, StatusOK, after[0].Status)
	assert.Equal(t, StatusUnknown, after[1].Status)
	assert.Equal(t, "heal 5", after[0].Line)
}
