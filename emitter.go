package beacon

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/xraph/beacon/hook"
	"github.com/xraph/beacon/id"
	"github.com/xraph/beacon/sched"
	"github.com/xraph/beacon/scope"
)

// Emitter owns one registry per signal payload type it has seen, plus
// exactly one scope. Its capability set is the union of payload types
// used with it — registries are independent and created lazily on first
// Connect or Broadcast of a type.
//
// All operations are safe for concurrent use. Close waits for every slot
// continuation spawned through the emitter's scope, so no subscriber task
// outlives the emitter.
type Emitter struct {
	id     id.EmitterID
	logger *slog.Logger
	hooks  *hook.Registry
	scope  *scope.Scope

	// regs maps reflect.Type of the payload to *registry[T].
	regs   sync.Map
	closed atomic.Bool
}

// Option configures an Emitter.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	scheduler sched.Scheduler
	hooks     []hook.Hook
}

// WithLogger sets the structured logger for the emitter.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScheduler sets the scheduler slot continuations are spawned on.
// Defaults to one goroutine per task. The caller owns the scheduler's
// lifecycle: a sched.Pool must be started before use and stopped after
// the emitter closes.
func WithScheduler(s sched.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithHooks registers lifecycle hooks with the emitter.
func WithHooks(hooks ...hook.Hook) Option {
	return func(o *options) { o.hooks = append(o.hooks, hooks...) }
}

// New creates an emitter with the given options.
func New(opts ...Option) *Emitter {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	e := &Emitter{
		id:     id.NewEmitterID(),
		logger: o.logger,
		hooks:  hook.NewRegistry(o.logger),
	}
	for _, h := range o.hooks {
		e.hooks.Register(h)
	}
	e.scope = scope.New(o.scheduler, o.logger, scope.WithPanicHandler(func(recovered any) {
		e.hooks.EmitSlotPanicked(context.Background(), e.id, recovered)
	}))
	return e
}

// ID returns the emitter's unique identifier.
func (e *Emitter) ID() id.EmitterID { return e.id }

// Scope returns the emitter's structured-concurrency scope.
func (e *Emitter) Scope() *scope.Scope { return e.scope }

// Hooks returns the emitter's hook registry.
func (e *Emitter) Hooks() *hook.Registry { return e.hooks }

// Closed reports whether Close has been called.
func (e *Emitter) Closed() bool { return e.closed.Load() }

// Close marks the emitter closed, detaches every registered slot (all
// outstanding connections become permanently inert), and blocks until all
// previously spawned continuations — fire-and-forget broadcasts and
// pending captured futures — have completed or the context expires.
// Close is idempotent; later calls only re-wait on the scope.
func (e *Emitter) Close(ctx context.Context) error {
	if e.closed.CompareAndSwap(false, true) {
		e.regs.Range(func(_, v any) bool {
			v.(interface{ closeAll() }).closeAll()
			return true
		})
		e.hooks.EmitEmitterClosed(ctx, e.id)
		e.scope.Close()
		e.logger.Debug("emitter closing", slog.String("emitter_id", e.id.String()))
	}
	return e.scope.Drain(ctx)
}

// registryFor returns the emitter's registry for payload type T, creating
// it on first use. The type-indexed map replaces capability inheritance:
// each payload type gets an independent registry selected at compile time
// through the generic dispatch operations.
func registryFor[T any](e *Emitter) *registry[T] {
	key := reflect.TypeFor[T]()
	if v, ok := e.regs.Load(key); ok {
		return v.(*registry[T])
	}
	v, _ := e.regs.LoadOrStore(key, newRegistry[T]())
	return v.(*registry[T])
}

// signalName returns the human-readable name of the payload type, used
// for hooks and logging.
func signalName[T any]() string {
	return reflect.TypeFor[T]().String()
}
