package trace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// Collector accumulates samples on the simulation tick and seals them into
// traces. It is single-threaded by contract: only the tick loop touches it.
//
// Window boundaries are seamless: the sample that completes a trace is also
// recorded as the first sample of the next one, so no position change can
// fall between two windows.
type Collector struct {
	traceLength int
	maxSealed   int

	epoch   uint64
	current []Sample
	sealed  []*Trace

	currentFirstAfterReset bool
	nextFirstAfterReset    bool
	stopped                bool
}

// NewCollector creates a collector for the given parameters. The first trace
// after startup counts as first-after-reset, arming the origin constraint.
func NewCollector(params *utils.Params) (*Collector, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collector params: %w", err)
	}

	return &Collector{
		traceLength:         params.TraceLength,
		maxSealed:           params.MaxInflight,
		nextFirstAfterReset: true,
	}, nil
}

// Record appends one tick's sample to the in-flight trace and seals completed
// windows. When the sealed queue is full, sealing is delayed: samples keep
// accumulating in the open window and are sealed once space frees up. Samples
// are never dropped.
func (c *Collector) Record(s Sample) {
	if c.stopped {
		return
	}

	if len(c.current) == 0 {
		c.currentFirstAfterReset = c.nextFirstAfterReset
		c.nextFirstAfterReset = false
	}
	c.current = append(c.current, s)
	c.sealCompleted()
}

// sealCompleted seals as many full windows as the queue has room for
func (c *Collector) sealCompleted() {
	for len(c.current) >= c.traceLength && len(c.sealed) < c.maxSealed {
		window := make([]Sample, c.traceLength)
		copy(window, c.current[:c.traceLength])

		c.sealed = append(c.sealed, &Trace{
			ID:              uuid.New(),
			Epoch:           c.epoch,
			Samples:         window,
			FirstAfterReset: c.currentFirstAfterReset,
		})

		// The boundary sample opens the next window so the transition across
		// the seam is interior to exactly one trace.
		rest := c.current[c.traceLength-1:]
		c.current = append([]Sample(nil), rest...)
		c.currentFirstAfterReset = false
	}
}

// PeekSealed returns the oldest sealed trace without removing it, or nil
func (c *Collector) PeekSealed() *Trace {
	if len(c.sealed) == 0 {
		return nil
	}
	return c.sealed[0]
}

// PopSealed removes and returns the oldest sealed trace, or nil
func (c *Collector) PopSealed() *Trace {
	if len(c.sealed) == 0 {
		return nil
	}
	t := c.sealed[0]
	c.sealed = c.sealed[1:]
	c.sealCompleted()
	return t
}

// Flush seals the in-flight window even if incomplete, padding it to the
// trace length. Returns nil if nothing is in flight.
func (c *Collector) Flush() (*Trace, error) {
	if len(c.current) == 0 {
		return nil, nil
	}

	t := &Trace{
		ID:              uuid.New(),
		Epoch:           c.epoch,
		Samples:         append([]Sample(nil), c.current...),
		FirstAfterReset: c.currentFirstAfterReset,
	}
	if err := t.Normalize(c.traceLength); err != nil {
		return nil, fmt.Errorf("failed to normalize flushed trace: %w", err)
	}

	c.current = nil
	return t, nil
}

// Stop halts sealing and submission; recorded state is kept for inspection.
// Entered when a violation is detected.
func (c *Collector) Stop() {
	c.stopped = true
}

// Reset clears all in-flight and sealed traces, adopts the new epoch, and
// arms the origin constraint for the next trace.
func (c *Collector) Reset(epoch uint64) {
	c.epoch = epoch
	c.current = nil
	c.sealed = nil
	c.stopped = false
	c.nextFirstAfterReset = true
}

// Epoch returns the epoch newly recorded traces are tagged with
func (c *Collector) Epoch() uint64 {
	return c.epoch
}

// Stopped reports whether the collector has been halted
func (c *Collector) Stopped() bool {
	return c.stopped
}
