package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/gacc/internal/config"
	"github.com/soyeahso/gacc/internal/console"
	"github.com/soyeahso/gacc/internal/dispatch"
	"github.com/soyeahso/gacc/internal/loader"
	"github.com/soyeahso/gacc/internal/registry"
	"github.com/soyeahso/gacc/internal/store"
)

// memoryHistoryRows bounds the in-memory history backend.
const memoryHistoryRows = 1000

// openHistory returns the configured history store, or nil when history
// is disabled.
func openHistory(cfg config.Config) (store.HistoryStore, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	if cfg.History.Store == "memory" {
		log.Debug().Msg("using in-memory history")
		return store.NewMemoryHistory(memoryHistoryRows), nil
	}
	h, err := store.OpenHistory(paths.HistoryDB(), log)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return h, nil
}

// consoleOptions maps configuration onto console options.
func consoleOptions(cfg config.Config, history store.HistoryStore) console.Options {
	return console.Options{
		Loader: loader.Options{
			Dir:             paths.CommandsDir(cfg),
			Pattern:         cfg.Commands.Pattern,
			Timeout:         cfg.Commands.LoadTimeout,
			AllowedPackages: cfg.Commands.AllowedPackages,
		},
		Policy:    registry.ParsePolicy(cfg.Commands.Collision),
		SplitMode: dispatch.ParseSplitMode(cfg.Console.SplitMode),
		Builtins:  cfg.Console.BuiltinsEnabled(),
		History:   history,
	}
}

// openConsole builds a console from cfg and loads its modules. The
// returned function releases the history store.
func openConsole(ctx context.Context, cfg config.Config) (*console.Console, func(), error) {
	history, err := openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if history != nil {
			if err := history.Close(); err != nil {
				log.Warn().Err(err).Msg("closing history")
			}
		}
	}

	con := console.New(consoleOptions(cfg, history), log)
	rep := con.Load(ctx)
	for _, e := range rep.Errors {
		log.Warn().Str("kind", string(e.Kind)).Str("module", e.Module).Msg(e.Error())
	}
	return con, closeFn, nil
}

// validateConfig logs every issue and fails if there are any.
func validateConfig(cfg *config.Config) error {
	issues := config.Validate(cfg)
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
}
