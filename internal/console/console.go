// Package console owns the live command registry and is the single entry
// point for submitted lines.
//
// Front-ends (terminal, gateway, IRC) call Submit and attach sinks to
// receive console output. Submissions are serialized, so command handlers
// never run concurrently with each other.
package console

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/soyeahso/gacc/internal/dispatch"
	"github.com/soyeahso/gacc/internal/hooks"
	"github.com/soyeahso/gacc/internal/loader"
	"github.com/soyeahso/gacc/internal/logging"
	"github.com/soyeahso/gacc/internal/registry"
	"github.com/soyeahso/gacc/internal/store"
)

// Output is one line written to the console.
type Output struct {
	Text   string          `json:"text"`
	Status dispatch.Status `json:"status,omitempty"` // set when the line reports a dispatch result
	ID     string          `json:"id,omitempty"`     // result id, if any
}

// Sink receives console output. Sinks may be called from any goroutine.
type Sink func(Output)

// Options configures a Console.
type Options struct {
	Loader    loader.Options // Print is overwritten to route to the console
	Policy    registry.Policy
	SplitMode dispatch.SplitMode
	Builtins  bool
	History   store.HistoryStore // optional
	Hooks     *hooks.Manager     // created when nil
}

// Console dispatches lines against the current registry.
type Console struct {
	log      *logging.Logger
	hooks    *hooks.Manager
	loader   *loader.Loader
	policy   registry.Policy
	builtins bool
	history  store.HistoryStore

	dispatcher *dispatch.Dispatcher
	reg        atomic.Pointer[registry.Registry]
	report     atomic.Pointer[loader.Report]

	submitMu sync.Mutex
	loadMu   sync.Mutex

	sinkMu   sync.RWMutex
	sinks    map[int]Sink
	nextSink int
	reply    Sink // sink from WithSink of the running submission
}

// New creates a Console with an empty registry. Call Load before use.
func New(opts Options, log *logging.Logger) *Console {
	hm := opts.Hooks
	if hm == nil {
		hm = hooks.NewManager(log)
	}

	c := &Console{
		log:      log.Sub("console"),
		hooks:    hm,
		policy:   opts.Policy,
		builtins: opts.Builtins,
		history:  opts.History,
		sinks:    make(map[int]Sink),
	}
	c.reg.Store(registry.Empty())

	lopts := opts.Loader
	lopts.Print = c.Print
	lopts.Hooks = hm
	c.loader = loader.New(lopts, log)
	c.dispatcher = dispatch.New(c.Registry, opts.SplitMode, hm, log)

	if c.history != nil {
		hm.On(hooks.EventAfterDispatch, "history", c.recordHistory)
	}
	return c
}

// Registry returns the registry currently used for dispatch.
func (c *Console) Registry() *registry.Registry {
	return c.reg.Load()
}

// LastReport returns the report of the most recent load, or nil.
func (c *Console) LastReport() *loader.Report {
	return c.report.Load()
}

// History returns the configured history store, or nil.
func (c *Console) History() store.HistoryStore {
	return c.history
}

// Hooks returns the console's hook manager.
func (c *Console) Hooks() *hooks.Manager {
	return c.hooks
}

// Load builds a registry from the module directory and makes it current.
// Built-in commands are registered first so modules can replace them.
func (c *Console) Load(ctx context.Context) *loader.Report {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	b := registry.NewBuilder(c.policy)
	if c.builtins {
		c.addBuiltins(b)
	}
	rep := c.loader.LoadInto(ctx, b)

	c.reg.Store(b.Build())
	c.report.Store(rep)
	return rep
}

// Reload is Load for an already running console. Lines submitted while it
// runs keep using the previous registry.
func (c *Console) Reload(ctx context.Context) *loader.Report {
	c.log.Info().Msg("reloading command modules")
	rep := c.Load(ctx)
	c.log.Info().
		Int("commands", c.Registry().Len()).
		Int("errors", len(rep.Errors)).
		Msg("reload complete")
	return rep
}

// Submit dispatches one line. Any result message is written to the
// attached sinks before Submit returns. If ctx carries a sink from WithSink,
// it also receives every line printed while this line runs, and nothing else.
func (c *Console) Submit(ctx context.Context, line string) dispatch.Result {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	if s := sinkFrom(ctx); s != nil {
		c.setReply(s)
		defer c.setReply(nil)
	}

	res := c.dispatcher.Dispatch(ctx, line)
	if res.Message != "" {
		c.emit(Output{Text: res.Message, Status: res.Status, ID: res.ID})
	}
	return res
}

// Print writes a plain line to every attached sink.
func (c *Console) Print(msg string) {
	c.emit(Output{Text: msg})
}

// Attach registers a sink and returns a function that detaches it.
func (c *Console) Attach(s Sink) (detach func()) {
	c.sinkMu.Lock()
	id := c.nextSink
	c.nextSink++
	c.sinks[id] = s
	c.sinkMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.sinkMu.Lock()
			delete(c.sinks, id)
			c.sinkMu.Unlock()
		})
	}
}

func (c *Console) setReply(s Sink) {
	c.sinkMu.Lock()
	c.reply = s
	c.sinkMu.Unlock()
}

func (c *Console) emit(out Output) {
	c.sinkMu.RLock()
	sinks := make([]Sink, 0, len(c.sinks)+1)
	for _, s := range c.sinks {
		sinks = append(sinks, s)
	}
	if c.reply != nil {
		sinks = append(sinks, c.reply)
	}
	c.sinkMu.RUnlock()

	if len(sinks) == 0 {
		c.log.Debug().Str("text", out.Text).Msg("console output with no sink attached")
		return
	}
	for _, s := range sinks {
		s(out)
	}
}

type (
	sourceKey struct{}
	sinkKey   struct{}
)

// WithSink binds s to the submission made with ctx. Front-ends that answer
// one caller use it instead of Attach so they never see output from lines
// submitted elsewhere.
func WithSink(ctx context.Context, s Sink) context.Context {
	return context.WithValue(ctx, sinkKey{}, s)
}

func sinkFrom(ctx context.Context) Sink {
	s, _ := ctx.Value(sinkKey{}).(Sink)
	return s
}

// WithSource tags ctx with the front-end a line came from. It is stored in
// history entries.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source set by WithSource, or "".
func SourceFrom(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey{}).(string)
	return s
}

func (c *Console) recordHistory(ctx context.Context, p hooks.Payload) error {
	res, ok := p.Data["result"].(dispatch.Result)
	if !ok {
		return nil
	}
	return c.history.Record(store.Entry{
		ID:       res.ID,
		Line:     res.Line,
		Command:  res.Command,
		Status:   string(res.Status),
		Message:  res.Message,
		Duration: res.Duration,
		Source:   SourceFrom(ctx),
	})
}
