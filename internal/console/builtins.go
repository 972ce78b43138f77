package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/gacc/internal/registry"
)

const builtinModule = "builtin"

func (c *Console) addBuiltins(b *registry.Builder) {
	for _, d := range []registry.Descriptor{
		{Name: "help", Usage: "help [command]", Module: builtinModule, Handler: c.help},
		{Name: "reload", Usage: "reload", Module: builtinModule, Handler: c.reload},
	} {
		if err := b.Add(d); err != nil {
			c.log.Warn().Err(err).Str("command", d.Name).Msg("builtin not registered")
		}
	}
}

func (c *Console) help(args []string) error {
	reg := c.Registry()
	if len(args) > 0 {
		d, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no such command %q", args[0])
		}
		c.Print(describe(d))
		return nil
	}

	descs := reg.Descriptors()
	if len(descs) == 0 {
		c.Print("no commands registered")
		return nil
	}
	lines := make([]string, 0, len(descs))
	for _, d := range descs {
		lines = append(lines, describe(d))
	}
	c.Print(strings.Join(lines, "\n"))
	return nil
}

func describe(d registry.Descriptor) string {
	switch {
	case d.Usage == "":
		return d.Name
	case strings.HasPrefix(d.Usage, d.Name):
		return d.Usage
	default:
		return d.Name + "  " + d.Usage
	}
}

func (c *Console) reload([]string) error {
	rep := c.Reload(context.Background())
	c.Print(fmt.Sprintf("loaded %d commands from %d modules (%d errors)",
		c.Registry().Len(), len(rep.Modules), len(rep.Errors)))
	return nil
}
