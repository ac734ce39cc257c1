package vybiummotionproof

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/integrity"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/trace"
)

// TickInput is one simulation tick's observed motion state. Positions and
// velocities are milli-pixel fixed point.
type TickInput struct {
	PosX int64
	PosY int64
	VelX int64
	VelY int64

	Inputs InputFlags

	// Reset requests a new epoch before this tick is recorded. The sample
	// becomes the origin of the first trace of the new epoch.
	Reset bool
}

// GuardSnapshot is an atomic view of the guard
type GuardSnapshot struct {
	State         IntegrityState
	Epoch         uint64
	Reason        string
	PendingProofs int
	Stats         StatsSnapshot
}

// GuardOption configures a Guard
type GuardOption func(*guardOptions)

type guardOptions struct {
	logger *slog.Logger
}

// WithLogger sets the structured logger used by the guard and its workers
func WithLogger(logger *slog.Logger) GuardOption {
	return func(o *guardOptions) {
		o.logger = logger
	}
}

// Guard is the asynchronous movement integrity pipeline. The tick loop feeds
// it one TickInput per tick; sealed traces are proven and verified on a
// bounded worker pool without blocking the loop, and any constraint
// violation moves the guard into StateViolationDetected.
//
// OnTick, Reset, Snapshot and Close are safe for concurrent use, though the
// usual caller is a single tick loop.
type Guard struct {
	config *Config
	logger *slog.Logger

	mu        sync.Mutex
	collector *trace.Collector
	machine   *integrity.Machine
	scheduler *integrity.Scheduler
	stats     *integrity.Stats
	tick      uint64
	closed    bool
}

// NewGuard creates and starts a guard
func NewGuard(config *Config, opts ...GuardOption) (*Guard, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "invalid configuration",
			Cause:   err,
		}
	}

	options := guardOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	collector, err := trace.NewCollector(config)
	if err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "failed to create collector",
			Cause:   err,
		}
	}

	g := &Guard{
		config:    config,
		logger:    options.logger,
		collector: collector,
		machine:   integrity.NewMachine(),
		stats:     integrity.NewStats(),
	}

	scheduler, err := integrity.NewScheduler(config, g.machine, g.stats,
		integrity.WithLogger(options.logger),
		integrity.WithViolationHook(g.onViolation))
	if err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "failed to create scheduler",
			Cause:   err,
		}
	}
	g.scheduler = scheduler
	g.scheduler.Start()

	return g, nil
}

// OnTick records one tick of motion. Completed windows are sealed and handed
// to the worker pool; the call never blocks on proving. After a violation the
// guard records nothing until Reset.
func (g *Guard) OnTick(input TickInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return &GuardError{
			Code:    ErrEngineClosed,
			Message: "guard is closed",
		}
	}

	if input.Reset {
		g.resetLocked()
	}

	g.collector.Record(trace.Sample{
		Tick:   g.tick,
		PosX:   input.PosX,
		PosY:   input.PosY,
		VelX:   input.VelX,
		VelY:   input.VelY,
		Inputs: input.Inputs,
	})
	g.tick++

	return g.drainLocked()
}

// drainLocked hands sealed traces to the scheduler until its queue pushes
// back. Traces are submitted in the order they were sealed.
func (g *Guard) drainLocked() error {
	for {
		t := g.collector.PeekSealed()
		if t == nil {
			return nil
		}
		ok, err := g.scheduler.Submit(t)
		if err != nil {
			return &GuardError{
				Code:    ErrEngineClosed,
				Message: "failed to submit trace",
				Cause:   err,
			}
		}
		if !ok {
			return nil
		}
		g.collector.PopSealed()
	}
}

// Reset returns the guard to StateNormal under a fresh epoch. In-flight
// proving work for the old epoch is cancelled and its verdicts, if any still
// complete, are discarded.
func (g *Guard) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return &GuardError{
			Code:    ErrEngineClosed,
			Message: "guard is closed",
		}
	}

	g.resetLocked()
	return nil
}

func (g *Guard) resetLocked() {
	epoch := g.machine.Reset()
	g.scheduler.CancelEpoch()
	g.collector.Reset(epoch)
	g.stats.Reset()
	g.logger.Info("integrity state reset", "epoch", epoch)
}

// onViolation runs on a worker goroutine when the machine enters
// StateViolationDetected. It halts collection so no further traces from the
// compromised epoch are recorded or submitted.
func (g *Guard) onViolation(snap integrity.Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.collector.Stop()
	g.logger.Warn("movement integrity violated",
		"epoch", snap.Epoch,
		"reason", snap.Reason)
}

// Snapshot returns an atomic view of integrity state and pipeline counters
func (g *Guard) Snapshot() GuardSnapshot {
	g.mu.Lock()
	pending := 0
	if g.scheduler != nil {
		pending = g.scheduler.Pending()
	}
	g.mu.Unlock()

	machineSnap := g.machine.Snapshot()
	return GuardSnapshot{
		State:         machineSnap.State,
		Epoch:         machineSnap.Epoch,
		Reason:        machineSnap.Reason,
		PendingProofs: pending,
		Stats:         g.stats.Snapshot(),
	}
}

// Close flushes the in-flight partial window, stops the worker pool after
// draining queued work, and leaves the guard accepting no further ticks.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true

	var remaining []*trace.Trace
	if !g.collector.Stopped() {
		for {
			t := g.collector.PopSealed()
			if t == nil {
				break
			}
			remaining = append(remaining, t)
		}
		if t, err := g.collector.Flush(); err != nil {
			g.logger.Warn("failed to flush partial window", "error", err)
		} else if t != nil {
			remaining = append(remaining, t)
		}
	}
	g.mu.Unlock()

	// Workers keep consuming until the scheduler closes, so a full queue
	// eventually drains.
	for _, t := range remaining {
		for {
			ok, err := g.scheduler.Submit(t)
			if err != nil || ok {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}

	g.scheduler.Close()
	return nil
}
