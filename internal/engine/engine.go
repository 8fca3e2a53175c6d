package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/integrators"
	"github.com/san-kum/nbodylab/internal/logging"
	"github.com/san-kum/nbodylab/internal/metrics"
	"github.com/san-kum/nbodylab/internal/physics"
)

const (
	DefaultQueueSize   = 64
	DefaultFrameBuffer = 64
)

// outbound is one entry of the worker's delivery queue: a frame, or a Sync
// barrier waiting for every frame queued ahead of it.
type outbound struct {
	frame   dynamo.Frame
	tick    bool
	barrier chan struct{}
}

// Engine is the single owner of the body store, parameters, clock and
// playing flag. All of that state is touched only by the goroutine running
// Run; other goroutines talk to it through Send and Frames.
type Engine struct {
	cmds    chan Command
	frames  chan dynamo.Frame
	done    chan struct{}
	running atomic.Bool

	log          logging.Logger
	metrics      *metrics.EngineCollector
	tickInterval time.Duration

	// worker-owned
	store    dynamo.Store
	params   dynamo.Params
	playing  bool
	loaded   bool
	steppers *integrators.Set
	drift    *metrics.EnergyDrift
	outbox   []outbound
}

type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(c *metrics.EngineCollector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithPlaying sets the initial playing flag. Engines start playing.
func WithPlaying(playing bool) Option {
	return func(e *Engine) { e.playing = playing }
}

// WithFrameBuffer sets the capacity of the Frames channel. Frames that do
// not fit wait in order inside the engine; only heartbeat frames are ever
// replaced by newer ones.
func WithFrameBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.frames = make(chan dynamo.Frame, n)
		}
	}
}

func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cmds = make(chan Command, n)
		}
	}
}

// WithTickInterval spaces heartbeats by at least d. Zero runs them back to
// back whenever no command is pending.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		cmds:     make(chan Command, DefaultQueueSize),
		frames:   make(chan dynamo.Frame, DefaultFrameBuffer),
		done:     make(chan struct{}),
		log:      logging.Noop(),
		params:   dynamo.DefaultParams(),
		playing:  true,
		steppers: integrators.NewSet(),
		drift:    metrics.NewEnergyDrift(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logging.String("component", "engine"))
	return e
}

// Frames delivers emitted frames. The channel is closed when Run returns.
func (e *Engine) Frames() <-chan dynamo.Frame { return e.frames }

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Send validates cmd and enqueues it behind every earlier command. It blocks
// while the queue is full.
func (e *Engine) Send(ctx context.Context, cmd Command) error {
	if err := Validate(cmd); err != nil {
		name := "unknown"
		if cmd != nil {
			name = cmd.Name()
		}
		e.metrics.ObserveRejected(name)
		e.log.Warn(ctx, "command rejected", logging.String("command", name), logging.Err(err))
		return err
	}

	select {
	case <-e.done:
		return dynamo.ErrEngineStopped
	default:
	}

	select {
	case e.cmds <- detach(cmd):
		return nil
	case <-e.done:
		return dynamo.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync blocks until every command sent before it has been handled and every
// frame produced so far has been handed to Frames. It waits on the reader
// when the Frames buffer is full.
func (e *Engine) Sync(ctx context.Context) error {
	b := barrier{done: make(chan struct{})}
	select {
	case <-e.done:
		return dynamo.ErrEngineStopped
	default:
	}

	select {
	case e.cmds <- b:
	case <-e.done:
		return dynamo.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-b.done:
		return nil
	case <-e.done:
		return dynamo.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run services commands and heartbeats one at a time until ctx is done.
// Pending commands and frame deliveries always go before the next heartbeat.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: already running")
	}
	defer close(e.frames)
	defer close(e.done)

	e.log.Info(ctx, "engine started", logging.Bool("playing", e.playing))
	defer func() {
		e.log.Info(ctx, "engine stopped", logging.Float("t", e.store.T))
	}()

	var timer *time.Timer
	if e.tickInterval > 0 {
		timer = time.NewTimer(e.tickInterval)
		defer timer.Stop()
	}

	for {
		e.settle()
		// a nil channel disables the delivery case while nothing is queued
		var out chan<- dynamo.Frame
		var head dynamo.Frame
		if len(e.outbox) > 0 {
			out, head = e.frames, e.outbox[0].frame
		}

		switch {
		case !e.ticking():
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd := <-e.cmds:
				e.handle(ctx, cmd)
			case out <- head:
				e.pop()
			}

		case timer == nil:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd := <-e.cmds:
				e.handle(ctx, cmd)
			case out <- head:
				e.pop()
			default:
				e.tick()
			}

		default:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd := <-e.cmds:
				e.handle(ctx, cmd)
			case out <- head:
				e.pop()
			case <-timer.C:
				e.tick()
				timer.Reset(e.tickInterval)
			}
		}
	}
}

func (e *Engine) ticking() bool { return e.loaded && e.playing }

func (e *Engine) handle(ctx context.Context, cmd Command) {
	if b, ok := cmd.(barrier); ok {
		e.outbox = append(e.outbox, outbound{barrier: b.done})
		return
	}
	e.metrics.ObserveCommand(cmd.Name())

	switch c := cmd.(type) {
	case Initialize:
		e.params = c.Params
		e.load(c.Bodies)
		e.log.Debug(ctx, "initialized",
			logging.Int("bodies", len(c.Bodies)),
			logging.String("method", e.params.Method.String()),
			logging.Float("dt", e.params.Dt))
		e.emit(false)

	case UpdateParameters:
		e.params = e.params.Merge(c.Params)
		e.log.Debug(ctx, "parameters updated",
			logging.Float("G", e.params.G),
			logging.Float("eps", e.params.Eps),
			logging.Float("dt", e.params.Dt),
			logging.String("method", e.params.Method.String()))

	case ReplaceBodies:
		e.load(c.Bodies)
		e.log.Debug(ctx, "bodies replaced", logging.Int("bodies", len(c.Bodies)))
		e.emit(false)

	case SetPlaying:
		e.playing = c.Playing
		e.log.Debug(ctx, "playing set", logging.Bool("playing", c.Playing))

	case Step:
		if !e.loaded {
			e.log.Debug(ctx, "step ignored", logging.Err(dynamo.ErrNotLoaded))
			return
		}
		e.advance(c.steps())
		e.emit(false)
	}
}

func (e *Engine) tick() {
	e.advance(1)
	e.emit(true)
}

func (e *Engine) load(bodies []dynamo.Body) {
	e.store.Reset(bodies)
	e.drift.Reset()
	e.loaded = true
}

// advance runs n steps with the method current at call time. A step is
// never interrupted.
func (e *Engine) advance(n int) {
	start := time.Now()
	for i := 0; i < n; i++ {
		e.steppers.Step(&e.store, e.params)
	}
	e.metrics.ObserveSteps(e.params.Method.String(), n, time.Since(start))
}

// emit snapshots positions and diagnostics into a fresh frame and queues
// it for delivery. Command frames are always delivered in order. A heartbeat
// frame replaces a heartbeat frame still waiting at the back of the queue.
func (e *Engine) emit(tick bool) {
	bodies := e.store.Bodies
	positions := make([]float64, 2*len(bodies))
	for i, b := range bodies {
		positions[2*i] = b.Pos.X
		positions[2*i+1] = b.Pos.Y
	}
	en := physics.Energies(bodies, e.store.T, e.params.G, e.params.Eps)
	e.drift.Observe(en)
	e.metrics.ObserveFrame(len(bodies), en.T, en.E, e.drift.Value())

	f := dynamo.Frame{Positions: positions, Energies: en}
	if n := len(e.outbox); tick && n > 0 && e.outbox[n-1].tick {
		e.outbox[n-1].frame = f
		e.metrics.ObserveDropped()
		return
	}
	e.outbox = append(e.outbox, outbound{frame: f, tick: tick})
}

func (e *Engine) pop() {
	e.outbox[0] = outbound{}
	e.outbox = e.outbox[1:]
}

// settle releases the barriers at the front of the queue.
func (e *Engine) settle() {
	for len(e.outbox) > 0 && e.outbox[0].barrier != nil {
		close(e.outbox[0].barrier)
		e.pop()
	}
}
