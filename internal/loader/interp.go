package loader

import (
	"context"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/soyeahso/gacc/pkg/command"
)

// compileFunc turns module source into its factory.
type compileFunc func(ctx context.Context, path string, src []byte) (command.Factory, error)

// yaegiCompiler evaluates modules with a fresh interpreter each, exposing
// only the allowed stdlib packages and pkg/command.
type yaegiCompiler struct {
	stdlib interp.Exports
}

func (c *yaegiCompiler) compile(ctx context.Context, path string, src []byte) (factory command.Factory, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	i := interp.New(interp.Options{})
	if len(c.stdlib) > 0 {
		if err := i.Use(c.stdlib); err != nil {
			return nil, fmt.Errorf("exposing stdlib: %w", err)
		}
	}
	if err := i.Use(commandExports); err != nil {
		return nil, fmt.Errorf("exposing command api: %w", err)
	}

	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return nil, err
	}

	v, err := i.EvalWithContext(ctx, command.FactoryName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFactory, err)
	}
	return asFactory(v)
}

func asFactory(v reflect.Value) (command.Factory, error) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, ErrNoFactory
	}
	switch fn := v.Interface().(type) {
	case func(command.Env) []command.Command:
		return fn, nil
	case command.Factory:
		return fn, nil
	default:
		return nil, fmt.Errorf("%w, got %s", ErrFactorySignature, v.Type())
	}
}
