package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/obsidianstack/framewatch/internal/clock"
	"github.com/obsidianstack/framewatch/pkg/types"
)

// Default cadences.
const (
	DefaultPollInterval      = 100 * time.Microsecond
	DefaultHeartbeatInterval = 100 * time.Millisecond
)

// Reporter receives one batch of reports per cycle. It is called from the
// consumer goroutine with no engine lock held. The batch is not retained by
// the engine, but a Reporter should copy what it keeps and return promptly:
// while it runs, no further cycle happens.
type Reporter func(batch []types.Report)

// Engine is the pipeline health monitor. Construct it with New; the zero
// value is not usable.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	clock       clock.Source
	log         *slog.Logger
	poll        time.Duration
	heartbeatUS int64

	frames   queue[types.FrameSignal]
	warnings queue[types.RawWarningSignal]

	mu        sync.Mutex
	pipelines map[string]*pipelineState
	names     []string // sorted keys of pipelines
	lastTick  int64    // wall sample of the last heartbeat or rollback

	reporter atomic.Pointer[Reporter]

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c clock.Source) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPollInterval sets how often Run performs a cycle.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// WithHeartbeatInterval sets the cadence of HEART_BEAT and WARNING reports.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.heartbeatUS = d.Microseconds()
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithReporter installs the initial Reporter.
func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.SetReporter(r) }
}

// New returns an Engine with no pipelines registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:       clock.NewSystem(),
		log:         slog.Default(),
		poll:        DefaultPollInterval,
		heartbeatUS: DefaultHeartbeatInterval.Microseconds(),
		pipelines:   make(map[string]*pipelineState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetReporter replaces the sink. It takes effect from the next cycle.
// A nil Reporter discards reports.
func (e *Engine) SetReporter(r Reporter) {
	if r == nil {
		e.reporter.Store(nil)
		return
	}
	e.reporter.Store(&r)
}

// Start launches the consumer goroutine. Calling Start on a running engine
// is a no-op.
func (e *Engine) Start() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	go func() {
		defer close(done)
		e.Run(ctx)
	}()
}

// Stop asks the consumer goroutine to finish and waits for it. The goroutine
// completes one last cycle, so signals submitted before Stop are reported.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.cancel = nil
	e.done = nil
}
