package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/air"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/encoding"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/prover"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/trace"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// ErrSchedulerClosed is returned by Submit after Close
var ErrSchedulerClosed = errors.New("scheduler is closed")

// submission pairs a sealed trace with the epoch context that was current
// when it entered the queue. Workers drop submissions whose context was
// cancelled by a reset.
type submission struct {
	trace *trace.Trace
	ctx   context.Context
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithLogger sets the structured logger used by the workers
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithViolationHook installs a callback invoked once per transition into
// StateViolationDetected. The callback runs on a worker goroutine and must
// not call back into the scheduler.
func WithViolationHook(hook func(Snapshot)) SchedulerOption {
	return func(s *Scheduler) {
		s.onViolation = hook
	}
}

// Scheduler runs proof generation and verification on a bounded worker pool
// and feeds the resulting verdicts into a Machine. The queue is bounded by
// Params.MaxInflight so a stalled pool exerts backpressure on the collector
// instead of growing without limit.
type Scheduler struct {
	params  *utils.Params
	encoder *encoding.Encoder
	engine  *prover.Engine
	machine *Machine
	stats   *Stats

	logger      *slog.Logger
	onViolation func(Snapshot)

	queue chan submission
	wg    sync.WaitGroup

	mu          sync.Mutex
	epochCtx    context.Context
	epochCancel context.CancelFunc
	closed      bool
}

// NewScheduler creates a scheduler. Start must be called before Submit.
func NewScheduler(params *utils.Params, machine *Machine, stats *Stats, opts ...SchedulerOption) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if machine == nil {
		return nil, fmt.Errorf("machine is nil")
	}

	encoder, err := encoding.NewEncoder(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	engine, err := prover.NewEngine(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if stats == nil {
		stats = NewStats()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		params:      params,
		encoder:     encoder,
		engine:      engine,
		machine:     machine,
		stats:       stats,
		logger:      slog.Default(),
		queue:       make(chan submission, params.MaxInflight),
		epochCtx:    ctx,
		epochCancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the worker pool
func (s *Scheduler) Start() {
	for i := 0; i < s.params.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Submit enqueues a sealed trace for proving. It returns false without
// blocking when the queue is at capacity; the caller keeps the trace sealed
// and retries later. Traces must be submitted in the order they were sealed.
func (s *Scheduler) Submit(t *trace.Trace) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrSchedulerClosed
	}
	ctx := s.epochCtx
	s.mu.Unlock()

	select {
	case s.queue <- submission{trace: t, ctx: ctx}:
		return true, nil
	default:
		return false, nil
	}
}

// Pending returns the number of queued submissions
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// CancelEpoch cancels every in-flight and queued submission for the current
// epoch. Called on reset and on entering StateViolationDetected; queued
// traces from the old epoch are drained and dropped by the workers.
func (s *Scheduler) CancelEpoch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.epochCancel()
	s.epochCtx, s.epochCancel = context.WithCancel(context.Background())
}

// Close stops accepting submissions and waits for the workers to drain the
// queue. Safe to call once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	s.wg.Wait()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	logger := s.logger.With("worker", id)
	for sub := range s.queue {
		if sub.ctx.Err() != nil {
			logger.Debug("dropping cancelled submission",
				"trace_id", sub.trace.ID,
				"epoch", sub.trace.Epoch)
			continue
		}
		s.process(logger, sub.trace)
	}
}

// process runs one trace through the full pipeline: encode, generate,
// verify, apply. Every trace ends in exactly one verdict.
func (s *Scheduler) process(logger *slog.Logger, t *trace.Trace) {
	matrix, err := air.BuildMatrix(t, s.encoder, s.params)
	if err != nil {
		// An out-of-range quantity means the prover cannot even represent
		// the motion, which is itself evidence against it.
		var overflow *encoding.OverflowError
		if errors.As(err, &overflow) {
			logger.Warn("trace failed encoding",
				"trace_id", t.ID,
				"epoch", t.Epoch,
				"error", err)
			s.stats.RecordVerification(0, false)
			s.apply(&prover.Verdict{
				TraceID: t.ID,
				Epoch:   t.Epoch,
				Outcome: prover.OutcomeInvalid,
				Reason:  fmt.Sprintf("encoding: %v", overflow),
			})
			return
		}
		// Anything else is a construction bug, not adversarial input
		panic(fmt.Sprintf("failed to build constraint matrix for trace %s: %v", t.ID, err))
	}

	pub := prover.PublicInputs{
		TraceID:         t.ID,
		Epoch:           t.Epoch,
		Height:          uint32(matrix.Height()),
		FirstAfterReset: t.FirstAfterReset,
		NumQueries:      uint32(s.params.NumQueries),
	}

	start := time.Now()
	proof, err := s.engine.Generate(matrix, pub)
	if err != nil {
		// On the instrumented path a constraint violation surfaces at
		// generation time; it carries the same meaning as a failed
		// verification and collapses to an Invalid verdict.
		var genErr *prover.GenerationError
		if errors.As(err, &genErr) {
			logger.Warn("instrumented generation rejected trace",
				"trace_id", t.ID,
				"epoch", t.Epoch,
				"violation", genErr.Violation)
			s.stats.RecordVerification(0, false)
			s.apply(&prover.Verdict{
				TraceID: t.ID,
				Epoch:   t.Epoch,
				Outcome: prover.OutcomeInvalid,
				Reason:  genErr.Violation.Error(),
			})
			return
		}
		panic(fmt.Sprintf("proof generation failed for trace %s: %v", t.ID, err))
	}
	genElapsed := time.Since(start)
	s.stats.RecordGeneration(genElapsed)

	start = time.Now()
	verdict, err := s.engine.Verify(proof)
	if err != nil {
		// The proof came straight from our own engine; a structural defect
		// here is a bug, not a cheat.
		panic(fmt.Sprintf("verification failed structurally for trace %s: %v", t.ID, err))
	}
	verifyElapsed := time.Since(start)
	s.stats.RecordVerification(verifyElapsed, verdict.Outcome == prover.OutcomeValid)

	logger.Debug("trace proven",
		"trace_id", t.ID,
		"epoch", t.Epoch,
		"outcome", verdict.Outcome,
		"generate", genElapsed,
		"verify", verifyElapsed)

	s.apply(verdict)
}

// apply feeds a verdict into the machine and fires the violation hook on a
// transition. Stale-epoch verdicts are absorbed by the machine.
func (s *Scheduler) apply(v *prover.Verdict) {
	if !s.machine.ApplyVerdict(v) {
		return
	}

	snap := s.machine.Snapshot()
	s.logger.Warn("integrity violation detected",
		"trace_id", v.TraceID,
		"epoch", v.Epoch,
		"reason", v.Reason)

	s.CancelEpoch()
	if s.onViolation != nil {
		s.onViolation(snap)
	}
}
