package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// REPLOptions configures RunREPL.
type REPLOptions struct {
	Prompt string
	Banner string
}

// RunREPL reads lines from in and submits each one until EOF or ctx is
// cancelled. Console output, including lines printed by other front-ends,
// is rendered to out.
func (c *Console) RunREPL(ctx context.Context, in io.Reader, out io.Writer, opts REPLOptions) error {
	var mu sync.Mutex
	write := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprint(out, s)
	}

	detach := c.Attach(func(o Output) {
		write(Render(o) + "\n")
	})
	defer detach()

	if opts.Banner != "" {
		write(mutedStyle.Render(opts.Banner) + "\n")
	}

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	ctx = WithSource(ctx, "repl")
	for {
		if opts.Prompt != "" {
			write(promptStyle.Render(opts.Prompt))
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			c.Submit(ctx, line)
		}
	}
}

// CommandList renders the registered commands for a terminal.
func (c *Console) CommandList() string {
	descs := c.Registry().Descriptors()
	if len(descs) == 0 {
		return mutedStyle.Render("no commands registered")
	}
	var sb strings.Builder
	for _, d := range descs {
		sb.WriteString(commandStyle.Render(d.Name))
		if d.Usage != "" {
			sb.WriteString("  " + d.Usage)
		}
		sb.WriteString("  " + mutedStyle.Render(d.Module) + "\n")
	}
	return sb.String()
}
