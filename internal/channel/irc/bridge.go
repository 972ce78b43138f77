// Package irc bridges an IRC connection to the console: lines from the
// configured owner that start with the command prefix are submitted, and
// whatever the console prints in response is sent back.
package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lrstanley/girc"

	"github.com/soyeahso/gacc/internal/channel"
	"github.com/soyeahso/gacc/internal/config"
	"github.com/soyeahso/gacc/internal/console"
	"github.com/soyeahso/gacc/internal/dispatch"
	"github.com/soyeahso/gacc/internal/logging"
)

const maxLineLen = 400

// Console is the part of console.Console the bridge needs.
type Console interface {
	Submit(ctx context.Context, line string) dispatch.Result
}

// Bridge connects one IRC network to a Console.
type Bridge struct {
	cfg     config.IRCConfig
	console Console
	client  *girc.Client
	log     *logging.Logger

	// send delivers one line; replaced in tests.
	send func(target, text string)

	mu      sync.RWMutex
	ctx     context.Context
	running bool
	lastErr string
}

// New creates a bridge. Start connects it.
func New(cfg config.IRCConfig, con Console, log *logging.Logger) *Bridge {
	if cfg.Prefix == "" {
		cfg.Prefix = config.DefaultIRCPrefix
	}
	return &Bridge{
		cfg:     cfg,
		console: con,
		log:     log.Sub("irc"),
		ctx:     context.Background(),
	}
}

func (b *Bridge) ID() string { return "irc" }

// Status returns the current connection state.
func (b *Bridge) Status() channel.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return channel.Status{
		ID:        b.ID(),
		Connected: b.client != nil && b.client.IsConnected(),
		Running:   b.running,
		LastError: b.lastErr,
	}
}

func defaultPort(cfg config.IRCConfig) int {
	switch {
	case cfg.Port != 0:
		return cfg.Port
	case cfg.UseTLS:
		return 6697
	default:
		return 6667
	}
}

func (b *Bridge) clientConfig() girc.Config {
	gc := girc.Config{
		Server:  b.cfg.Server,
		Port:    defaultPort(b.cfg),
		Nick:    b.cfg.Nick,
		User:    b.cfg.Nick,
		Name:    "gacc console",
		SSL:     b.cfg.UseTLS,
		Version: "gacc",
	}
	if b.cfg.UseTLS {
		gc.TLSConfig = &tls.Config{ServerName: b.cfg.Server}
	}
	if b.cfg.SASL && b.cfg.Password != "" {
		gc.SASL = &girc.SASLPlain{User: b.cfg.Nick, Pass: b.cfg.Password}
	} else if b.cfg.Password != "" {
		gc.ServerPass = b.cfg.Password
	}
	return gc
}

// Start connects and blocks until ctx is cancelled or the connection ends.
func (b *Bridge) Start(ctx context.Context) error {
	client := girc.New(b.clientConfig())
	client.Handlers.Add(girc.CONNECTED, b.onConnected)
	client.Handlers.Add(girc.PRIVMSG, b.onPrivmsg)
	client.Handlers.Add(girc.DISCONNECTED, b.onDisconnected)

	b.mu.Lock()
	b.client = client
	b.ctx = ctx
	b.running = true
	b.lastErr = ""
	if b.send == nil {
		b.send = func(target, text string) { client.Cmd.Message(target, text) }
	}
	b.mu.Unlock()

	b.log.Info().
		Str("server", b.cfg.Server).
		Int("port", defaultPort(b.cfg)).
		Str("nick", b.cfg.Nick).
		Strs("channels", b.cfg.Channels).
		Bool("tls", b.cfg.UseTLS).
		Msg("connecting to IRC")

	errCh := make(chan error, 1)
	go func() { errCh <- client.Connect() }()

	select {
	case err := <-errCh:
		b.mu.Lock()
		b.running = false
		if err != nil {
			b.lastErr = err.Error()
		}
		b.mu.Unlock()
		if err != nil {
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		client.Close()
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		return ctx.Err()
	}
}

// Stop quits the IRC connection.
func (b *Bridge) Stop(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil && b.client.IsConnected() {
		b.log.Info().Msg("disconnecting from IRC")
		b.client.Quit("console shutting down")
	}
	b.running = false
	return nil
}

func (b *Bridge) onConnected(c *girc.Client, _ girc.Event) {
	b.log.Info().Str("nick", c.GetNick()).Msg("connected to IRC")
	for _, ch := range b.cfg.Channels {
		b.log.Info().Str("channel", ch).Msg("joining channel")
		c.Cmd.Join(ch)
	}
}

func (b *Bridge) onDisconnected(*girc.Client, girc.Event) {
	b.log.Warn().Msg("disconnected from IRC")
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}

func (b *Bridge) onPrivmsg(c *girc.Client, e girc.Event) {
	if e.Source == nil || e.Source.Name == c.GetNick() || e.IsAction() {
		return
	}
	replyTo := e.Source.Name
	if e.IsFromChannel() {
		replyTo = e.Params[0]
	}
	b.handle(e.Source.Name, replyTo, e.Last())
}

// accept returns the console line carried by body, if the message should
// be dispatched.
func (b *Bridge) accept(nick, body string) (string, bool) {
	if !strings.HasPrefix(body, b.cfg.Prefix) {
		return "", false
	}
	if b.cfg.Owner == "" || !strings.EqualFold(nick, b.cfg.Owner) {
		b.log.Debug().Str("nick", nick).Msg("ignoring command from non-owner")
		return "", false
	}
	line := strings.TrimSpace(strings.TrimPrefix(body, b.cfg.Prefix))
	return line, line != ""
}

// handle submits an accepted line and replies with everything the console
// printed while it ran.
func (b *Bridge) handle(nick, replyTo, body string) {
	line, ok := b.accept(nick, body)
	if !ok {
		return
	}

	var mu sync.Mutex
	var out []string
	reply := func(o console.Output) {
		mu.Lock()
		out = append(out, o.Text)
		mu.Unlock()
	}

	b.mu.RLock()
	ctx := b.ctx
	send := b.send
	b.mu.RUnlock()

	ctx = console.WithSink(console.WithSource(ctx, "irc:"+nick), reply)
	res := b.console.Submit(ctx, line)

	b.log.Info().
		Str("nick", nick).
		Str("command", res.Command).
		Str("status", string(res.Status)).
		Msg("irc command")

	if send == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	for _, text := range out {
		for _, chunk := range splitMessage(text, maxLineLen) {
			send(replyTo, chunk)
		}
	}
}

// splitMessage breaks text into IRC-sized lines. Each newline starts a new
// line; longer lines are cut at the last rune boundary within maxLen bytes.
// Blank lines are dropped.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if strings.TrimSpace(line) != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}
