package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/gacc/internal/console"
	"github.com/soyeahso/gacc/internal/version"
)

func newConsoleCmd() *cobra.Command {
	var (
		over     frontendOverrides
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the interactive console and any enabled remote front-ends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			over.apply(&cfg)
			if err := validateConfig(&cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			con, closeHistory, err := openConsole(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			frontends := newFrontends(cfg, con)
			if frontends.Count() > 0 {
				frontends.StartAll(ctx)
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					frontends.StopAll(stopCtx)
					frontends.Wait()
				}()
			}

			if headless {
				if frontends.Count() == 0 {
					return fmt.Errorf("--headless needs the gateway or IRC enabled")
				}
				log.Info().Strs("frontends", frontends.List()).Msg("running headless")
				<-ctx.Done()
				return nil
			}

			return con.RunREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), console.REPLOptions{
				Prompt: cfg.Console.Prompt,
				Banner: fmt.Sprintf("gacc %s, %d commands. Type help for a list.", version.Version, con.Registry().Len()),
			})
		},
	}

	cmd.Flags().IntVar(&over.port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&over.bind, "bind", "", "override gateway bind mode (loopback, lan, custom)")
	cmd.Flags().BoolVar(&over.noGateway, "no-gateway", false, "do not start the WebSocket gateway")
	cmd.Flags().BoolVar(&over.noIRC, "no-irc", false, "do not connect to IRC")
	cmd.Flags().BoolVar(&headless, "headless", false, "serve remote front-ends without reading from stdin")

	return cmd
}
