// Package dispatch turns submitted console lines into command invocations.
//
// Every failure (unknown name, handler error, handler panic) is converted
// into a Result and logged. Dispatch never returns an error and never
// modifies the registry it reads.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/gacc/internal/hooks"
	"github.com/soyeahso/gacc/internal/logging"
	"github.com/soyeahso/gacc/internal/registry"
)

// Status is the outcome of one dispatched line.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusOK      Status = "ok"
	StatusUnknown Status = "unknown"
	StatusFailed  Status = "failed"
)

// Result reports what happened to one submitted line.
type Result struct {
	ID       string        `json:"id"`
	Line     string        `json:"line"`
	Status   Status        `json:"status"`
	Command  string        `json:"command,omitempty"`
	Args     []string      `json:"args,omitempty"`
	Message  string        `json:"message,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the command ran without error.
func (r Result) OK() bool { return r.Status == StatusOK }

// Source returns the registry to dispatch against. It is called once per
// line so a reload takes effect on the next submission.
type Source func() *registry.Registry

// Dispatcher resolves lines against a registry and runs the handler.
type Dispatcher struct {
	source Source
	mode   SplitMode
	hooks  *hooks.Manager
	log    *logging.Logger
}

// New creates a Dispatcher. hm may be nil.
func New(source Source, mode SplitMode, hm *hooks.Manager, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		source: source,
		mode:   mode,
		hooks:  hm,
		log:    log.Sub("dispatch"),
	}
}

// Mode returns the argument split mode.
func (d *Dispatcher) Mode() SplitMode { return d.mode }

// Dispatch parses line, looks the command up and runs it.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) Result {
	res := Result{ID: uuid.NewString(), Line: line}

	inv, ok, err := Parse(line, d.mode)
	if !ok {
		res.Status = StatusEmpty
		return res
	}
	res.Command = inv.Name
	res.Args = inv.Args

	start := time.Now()
	d.hooks.Emit(ctx, hooks.EventBeforeDispatch, map[string]any{
		"id":      res.ID,
		"command": inv.Name,
		"args":    inv.Args,
	})

	if err != nil {
		d.fail(&res, err)
	} else if desc, found := d.source().Lookup(inv.Name); !found {
		res.Status = StatusUnknown
		res.Message = "unknown command: " + inv.Name
		d.log.Warn().Str("command", inv.Name).Msg("unknown command")
	} else if err := invoke(desc, inv.Args); err != nil {
		d.fail(&res, err)
	} else {
		res.Status = StatusOK
		d.log.Debug().Str("command", inv.Name).Strs("args", inv.Args).Msg("command ran")
	}
	res.Duration = time.Since(start)

	d.hooks.Emit(ctx, hooks.EventAfterDispatch, map[string]any{
		"id":      res.ID,
		"command": res.Command,
		"status":  string(res.Status),
		"result":  res,
	})
	return res
}

func (d *Dispatcher) fail(res *Result, err error) {
	res.Status = StatusFailed
	res.Err = err
	res.Message = fmt.Sprintf("command %s failed: %v", res.Command, err)

	ev := d.log.Error().Err(err).Str("command", res.Command)
	var pe *PanicError
	if errors.As(err, &pe) {
		ev = ev.Bool("panic", true)
	}
	ev.Msg("command failed")
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func invoke(desc registry.Descriptor, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return desc.Handler(args)
}
