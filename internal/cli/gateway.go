package cli

import (
	"github.com/soyeahso/gacc/internal/channel"
	"github.com/soyeahso/gacc/internal/channel/irc"
	"github.com/soyeahso/gacc/internal/config"
	"github.com/soyeahso/gacc/internal/console"
	"github.com/soyeahso/gacc/internal/gateway"
)

// frontendOverrides are command-line switches applied on top of config.
type frontendOverrides struct {
	port      int
	bind      string
	noGateway bool
	noIRC     bool
}

func (o frontendOverrides) apply(cfg *config.Config) {
	if o.port != 0 {
		cfg.Gateway.Port = o.port
	}
	if o.bind != "" {
		cfg.Gateway.Bind = o.bind
	}
	if o.noGateway {
		cfg.Gateway.Enabled = false
	}
	if o.noIRC {
		cfg.IRC = nil
	}
}

// newFrontends registers the remote front-ends enabled in cfg.
func newFrontends(cfg config.Config, con *console.Console) *channel.Registry {
	frontends := channel.NewRegistry(log)
	if cfg.Gateway.Enabled {
		frontends.Register(gateway.New(cfg.Gateway, con, log))
	}
	if cfg.IRC != nil {
		frontends.Register(irc.New(*cfg.IRC, con, log))
	}
	return frontends
}
