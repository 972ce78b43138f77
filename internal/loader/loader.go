// Package loader discovers command modules in a directory and registers the
// commands they export.
//
// A module is a Go source file evaluated by an embedded interpreter. It must
// export Commands(command.Env) []command.Command. Every failure is recorded
// in the returned Report and logged; none of them stops the load pass.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/afero"

	"github.com/soyeahso/gacc/internal/hooks"
	"github.com/soyeahso/gacc/internal/logging"
	"github.com/soyeahso/gacc/internal/registry"
	"github.com/soyeahso/gacc/pkg/command"
)

// DefaultPattern matches module files.
const DefaultPattern = "*.go"

// Options configures a Loader.
type Options struct {
	Dir             string
	Pattern         string        // glob matched against file names, default "*.go"
	Timeout         time.Duration // per-module evaluation limit, 0 for none
	AllowedPackages []string      // stdlib import paths modules may use
	Fs              afero.Fs      // defaults to the OS filesystem
	Hooks           *hooks.Manager
	Print           func(msg string) // console output handed to modules
}

// Loader scans a module directory and fills a registry.Builder.
type Loader struct {
	opts    Options
	fs      afero.Fs
	log     *logging.Logger
	compile compileFunc
}

// New creates a Loader. Unknown entries in AllowedPackages are logged and
// ignored.
func New(opts Options, log *logging.Logger) *Loader {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	l := &Loader{
		opts: opts,
		fs:   fsys,
		log:  log.Sub("loader"),
	}

	std, unknown := restrictedStdlib(opts.AllowedPackages)
	for _, p := range unknown {
		l.log.Warn().Str("package", p).Msg("unknown stdlib package in allow-list")
	}
	l.compile = (&yaegiCompiler{stdlib: std}).compile
	return l
}

// ModuleResult is the outcome for one module file.
type ModuleResult struct {
	Path     string   `json:"path"`
	Commands []string `json:"commands,omitempty"`
	Err      error    `json:"-"`
}

// Report summarizes a load pass.
type Report struct {
	Dir        string
	Modules    []ModuleResult
	Errors     []*Error
	Registered int
	Duration   time.Duration
}

// ErrorsOfKind returns the recorded errors with the given kind.
func (r *Report) ErrorsOfKind(k Kind) []*Error {
	var out []*Error
	for _, e := range r.Errors {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Load builds a fresh registry from the module directory.
func (l *Loader) Load(ctx context.Context, policy registry.Policy) (*registry.Registry, *Report) {
	b := registry.NewBuilder(policy)
	rep := l.LoadInto(ctx, b)
	return b.Build(), rep
}

// LoadInto registers every module's commands into b. The directory is
// created when missing. It never fails; problems are collected in the
// Report.
func (l *Loader) LoadInto(ctx context.Context, b *registry.Builder) *Report {
	start := time.Now()
	rep := &Report{Dir: l.opts.Dir}
	before := b.Len()

	paths, err := l.discover()
	if err != nil {
		rep.Errors = append(rep.Errors, &Error{Kind: KindLoad, Module: l.opts.Dir, Err: err})
		l.log.Error().Err(err).Str("dir", l.opts.Dir).Msg("cannot scan command directory")
	}

	if err == nil && len(paths) == 0 {
		l.log.Warn().
			Str("dir", l.opts.Dir).
			Str("pattern", l.opts.Pattern).
			Msg("no command modules found")
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			rep.Errors = append(rep.Errors, &Error{Kind: KindLoad, Module: path, Err: ctx.Err()})
			break
		}
		rep.Modules = append(rep.Modules, l.loadModule(ctx, path, b, rep))
	}

	rep.Registered = b.Len() - before
	rep.Duration = time.Since(start)

	if rep.Registered == 0 && len(paths) > 0 {
		l.log.Warn().Str("dir", l.opts.Dir).Msg("no commands registered")
	}
	l.log.Info().
		Int("modules", len(paths)).
		Int("commands", rep.Registered).
		Int("errors", len(rep.Errors)).
		Dur("duration", rep.Duration).
		Msg("command load complete")

	l.opts.Hooks.Emit(ctx, hooks.EventLoadComplete, map[string]any{
		"dir":      l.opts.Dir,
		"modules":  len(paths),
		"commands": rep.Registered,
		"errors":   len(rep.Errors),
	})
	return rep
}

// discover lists module files, creating the directory when absent.
func (l *Loader) discover() ([]string, error) {
	if err := l.fs.MkdirAll(l.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", l.opts.Dir, err)
	}

	entries, err := afero.ReadDir(l.fs, l.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.opts.Dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(l.opts.Pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", l.opts.Pattern, err)
		}
		if ok {
			paths = append(paths, filepath.Join(l.opts.Dir, e.Name()))
		}
	}
	return paths, nil
}

func (l *Loader) loadModule(ctx context.Context, path string, b *registry.Builder, rep *Report) ModuleResult {
	res := ModuleResult{Path: path}
	name := filepath.Base(path)
	log := l.log.With("module", name)

	fail := func(kind Kind, err error) ModuleResult {
		e := &Error{Kind: kind, Module: path, Err: err}
		rep.Errors = append(rep.Errors, e)
		res.Err = e
		log.Error().Err(err).Str("kind", string(kind)).Msg("failed to load command module")
		l.opts.Hooks.Emit(ctx, hooks.EventModuleFailed, map[string]any{
			"module": path,
			"kind":   string(kind),
			"error":  err.Error(),
		})
		return res
	}

	log.Info().Msg("loading command module")

	src, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(KindNotFound, err)
		}
		return fail(KindLoad, err)
	}

	evalCtx := ctx
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	factory, err := l.compile(evalCtx, path, src)
	if err != nil {
		return fail(KindLoad, err)
	}
	log.Debug().Msg("module compiled")

	env := command.Env{
		Log:   l.log.ForModule(name),
		Print: l.opts.Print,
	}
	cmds, err := instantiate(evalCtx, factory, env)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fail(KindLoad, fmt.Errorf("calling Commands: %w", err))
	default:
		return fail(KindInstantiate, err)
	}

	for i, c := range cmds {
		if err := validate(c); err != nil {
			label := c.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i)
			}
			e := &Error{Kind: KindInstantiate, Module: path, Command: label, Err: err}
			rep.Errors = append(rep.Errors, e)
			log.Error().Err(err).Str("command", label).Msg("skipping command")
			continue
		}

		d := registry.Descriptor{Name: c.Name, Usage: c.Usage, Module: path, Handler: c.Run}
		if err := b.Add(d); err != nil {
			var ce *registry.CollisionError
			if !errors.As(err, &ce) {
				rep.Errors = append(rep.Errors, &Error{Kind: KindLoad, Module: path, Command: c.Name, Err: err})
				continue
			}
			if b.Policy() == registry.Reject {
				rep.Errors = append(rep.Errors, &Error{Kind: KindCollision, Module: path, Command: c.Name, Err: err})
				log.Error().Err(err).Str("command", c.Name).Msg("command name already registered")
				continue
			}
			log.Warn().Str("command", c.Name).Str("previous", ce.Existing).Msg("command overrides earlier registration")
		}

		res.Commands = append(res.Commands, c.Name)
		log.Info().Str("command", c.Name).Msg("command registered")
		l.opts.Hooks.Emit(ctx, hooks.EventCommandRegistered, map[string]any{
			"name":   c.Name,
			"module": path,
		})
	}

	l.opts.Hooks.Emit(ctx, hooks.EventModuleLoaded, map[string]any{
		"module":   path,
		"commands": res.Commands,
	})
	return res
}

type factoryResult struct {
	cmds []command.Command
	err  error
}

// instantiate calls the module factory, converting a panic into an error.
// It gives up when ctx is done; a factory that never returns is left
// running, since interpreted code cannot be interrupted.
func instantiate(ctx context.Context, factory command.Factory, env command.Env) ([]command.Command, error) {
	done := make(chan factoryResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- factoryResult{err: &PanicError{Value: r}}
			}
		}()
		done <- factoryResult{cmds: factory(env)}
	}()

	select {
	case r := <-done:
		return r.cmds, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func validate(c command.Command) error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if strings.IndexFunc(c.Name, unicode.IsSpace) >= 0 {
		return ErrNameWhitespace
	}
	if c.Run == nil {
		return ErrNilHandler
	}
	return nil
}
