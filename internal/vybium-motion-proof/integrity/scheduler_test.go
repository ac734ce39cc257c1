package integrity

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/trace"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// legalTrace builds a post-reset trace obeying the physics exactly
func legalTrace(params *utils.Params, epoch uint64) *trace.Trace {
	samples := make([]trace.Sample, params.TraceLength)
	var posX int64

	samples[0] = trace.Sample{Tick: 0}
	for i := 1; i < len(samples); i++ {
		velX := params.Speed
		posX += velX * params.TimestepFactor
		samples[i] = trace.Sample{
			Tick:   uint64(i),
			PosX:   posX,
			VelX:   velX,
			Inputs: trace.InputFlags{Right: true},
		}
	}

	return &trace.Trace{
		ID:              uuid.New(),
		Epoch:           epoch,
		Samples:         samples,
		FirstAfterReset: true,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

// TestSchedulerValidTrace tests the full pipeline on honest motion
func TestSchedulerValidTrace(t *testing.T) {
	params := utils.DefaultParams()
	machine := NewMachine()
	stats := NewStats()

	s, err := NewScheduler(params, machine, stats)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	s.Start()
	defer s.Close()

	ok, err := s.Submit(legalTrace(params, 0))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !ok {
		t.Fatal("Submission should be accepted on an empty queue")
	}

	waitFor(t, "verification to complete", func() bool {
		return stats.Snapshot().ProofsVerified == 1
	})

	snap := stats.Snapshot()
	if snap.ProofsGenerated != 1 {
		t.Errorf("Expected 1 generated proof, got %d", snap.ProofsGenerated)
	}
	if snap.FailedVerifications != 0 {
		t.Errorf("Expected no failed verifications, got %d", snap.FailedVerifications)
	}
	if machine.Snapshot().State != StateNormal {
		t.Error("Honest trace should leave the machine in StateNormal")
	}
}

// TestSchedulerViolation tests that a cheating trace trips the machine and
// fires the violation hook
func TestSchedulerViolation(t *testing.T) {
	params := utils.DefaultParams()
	machine := NewMachine()
	stats := NewStats()

	hookFired := make(chan Snapshot, 1)
	s, err := NewScheduler(params, machine, stats,
		WithViolationHook(func(snap Snapshot) {
			hookFired <- snap
		}))
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	s.Start()
	defer s.Close()

	cheat := legalTrace(params, 0)
	cheat.Samples[4].PosX += 10_000

	if _, err := s.Submit(cheat); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case snap := <-hookFired:
		if snap.State != StateViolationDetected {
			t.Errorf("Hook snapshot state = %v", snap.State)
		}
		if snap.Reason == "" {
			t.Error("Hook snapshot should carry a reason")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Violation hook never fired")
	}

	if stats.Snapshot().FailedVerifications != 1 {
		t.Errorf("Expected 1 failed verification, got %d", stats.Snapshot().FailedVerifications)
	}
}

// TestSchedulerEncodingOverflow tests that an unencodable trace becomes an
// immediate Invalid verdict without proving
func TestSchedulerEncodingOverflow(t *testing.T) {
	params := utils.DefaultParams()
	machine := NewMachine()
	stats := NewStats()

	s, err := NewScheduler(params, machine, stats)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	s.Start()
	defer s.Close()

	overflowing := legalTrace(params, 0)
	overflowing.Samples[5].PosX = params.PositionMax + 1
	overflowing.FirstAfterReset = false

	if _, err := s.Submit(overflowing); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	waitFor(t, "overflow verdict", func() bool {
		return machine.Snapshot().State == StateViolationDetected
	})

	snap := stats.Snapshot()
	if snap.ProofsGenerated != 0 {
		t.Errorf("Overflow should skip generation, got %d proofs", snap.ProofsGenerated)
	}
	if snap.FailedVerifications != 1 {
		t.Errorf("Expected 1 failed verification, got %d", snap.FailedVerifications)
	}
}

// TestSchedulerStaleEpochDropped tests that cancellation discards queued
// work from the old epoch
func TestSchedulerStaleEpochDropped(t *testing.T) {
	params := utils.DefaultParams()
	machine := NewMachine()
	stats := NewStats()

	s, err := NewScheduler(params, machine, stats)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	// Queue a cheating trace before any worker runs, then cancel its epoch
	cheat := legalTrace(params, 0)
	cheat.Samples[4].PosX += 10_000
	if _, err := s.Submit(cheat); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	s.CancelEpoch()
	machine.Reset()

	s.Start()
	s.Close()

	if machine.Snapshot().State != StateNormal {
		t.Error("Cancelled submission should never produce a verdict")
	}
	if stats.Snapshot().ProofsVerified != 0 {
		t.Errorf("Cancelled submission was processed: %+v", stats.Snapshot())
	}
}

// TestSchedulerClose tests shutdown semantics
func TestSchedulerClose(t *testing.T) {
	params := utils.DefaultParams()
	s, err := NewScheduler(params, NewMachine(), NewStats())
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	s.Start()
	s.Close()

	if _, err := s.Submit(legalTrace(params, 0)); err != ErrSchedulerClosed {
		t.Errorf("Expected ErrSchedulerClosed, got %v", err)
	}

	// Close is idempotent
	s.Close()
}

// TestSchedulerBackpressure tests that a full queue rejects without blocking
func TestSchedulerBackpressure(t *testing.T) {
	params := utils.DefaultParams()
	params.MaxInflight = 1

	s, err := NewScheduler(params, NewMachine(), NewStats())
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	// Workers never started, so the first submission fills the queue
	defer func() {
		s.Start()
		s.Close()
	}()

	ok, err := s.Submit(legalTrace(params, 0))
	if err != nil || !ok {
		t.Fatalf("First submission should be accepted: ok=%v err=%v", ok, err)
	}

	ok, err = s.Submit(legalTrace(params, 0))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if ok {
		t.Error("Second submission should be rejected while the queue is full")
	}
	if s.Pending() != 1 {
		t.Errorf("Expected 1 pending submission, got %d", s.Pending())
	}
}
