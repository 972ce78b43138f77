package loader

import (
	"errors"
	"fmt"
)

// Kind classifies a load-time failure.
type Kind string

const (
	// KindNotFound means a listed module vanished before it could be read.
	KindNotFound Kind = "module_not_found"
	// KindLoad means the module could not be read, compiled or evaluated.
	KindLoad Kind = "module_load_failed"
	// KindInstantiate means the module's factory, or one command it
	// returned, could not produce a usable command.
	KindInstantiate Kind = "instantiation_failed"
	// KindCollision means a command name was registered twice.
	KindCollision Kind = "name_collision"
)

var (
	// ErrNoFactory is returned when a module does not export Commands.
	ErrNoFactory = errors.New("module does not export Commands")
	// ErrFactorySignature is returned when Commands has the wrong type.
	ErrFactorySignature = errors.New("Commands must be func(command.Env) []command.Command")
	// ErrEmptyName is returned for a command without a name.
	ErrEmptyName = errors.New("command has an empty name")
	// ErrNameWhitespace is returned for a name that could never be dispatched.
	ErrNameWhitespace = errors.New("command name contains whitespace")
	// ErrNilHandler is returned for a command without a Run function.
	ErrNilHandler = errors.New("command has no Run function")
)

// Error is a single load-pass failure. Module is the module path; Command
// is set when the failure concerns one command of that module.
type Error struct {
	Kind    Kind
	Module  string
	Command string
	Err     error
}

func (e *Error) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("%s: %s: command %s: %v", e.Kind, e.Module, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Module, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking module.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
