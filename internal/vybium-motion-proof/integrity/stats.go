package integrity

import (
	"sync"
	"time"
)

// Stats accumulates proving pipeline counters. Safe for concurrent use by
// the worker pool.
type Stats struct {
	mu sync.Mutex

	proofsGenerated     uint64
	proofsVerified      uint64
	failedVerifications uint64
	totalGeneration     time.Duration
	totalVerification   time.Duration
}

// NewStats creates an empty counter set
func NewStats() *Stats {
	return &Stats{}
}

// RecordGeneration accounts one successful proof generation
func (s *Stats) RecordGeneration(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofsGenerated++
	s.totalGeneration += elapsed
}

// RecordVerification accounts one completed verification. valid is false for
// Invalid verdicts, including those synthesized without running the verifier.
func (s *Stats) RecordVerification(elapsed time.Duration, valid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofsVerified++
	s.totalVerification += elapsed
	if !valid {
		s.failedVerifications++
	}
}

// Reset zeroes all counters. Called when an integrity reset opens a new
// epoch, so the counters always describe the current epoch only.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofsGenerated = 0
	s.proofsVerified = 0
	s.failedVerifications = 0
	s.totalGeneration = 0
	s.totalVerification = 0
}

// StatsSnapshot is a point-in-time copy of the counters with derived
// averages.
type StatsSnapshot struct {
	ProofsGenerated     uint64        `json:"proofs_generated"`
	ProofsVerified      uint64        `json:"proofs_verified"`
	FailedVerifications uint64        `json:"failed_verifications"`
	TotalGeneration     time.Duration `json:"total_generation_ns"`
	TotalVerification   time.Duration `json:"total_verification_ns"`
	AvgGeneration       time.Duration `json:"avg_generation_ns"`
	AvgVerification     time.Duration `json:"avg_verification_ns"`
}

// Snapshot returns a consistent copy of all counters
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		ProofsGenerated:     s.proofsGenerated,
		ProofsVerified:      s.proofsVerified,
		FailedVerifications: s.failedVerifications,
		TotalGeneration:     s.totalGeneration,
		TotalVerification:   s.totalVerification,
	}
	if s.proofsGenerated > 0 {
		snap.AvgGeneration = s.totalGeneration / time.Duration(s.proofsGenerated)
	}
	if s.proofsVerified > 0 {
		snap.AvgVerification = s.totalVerification / time.Duration(s.proofsVerified)
	}
	return snap
}
