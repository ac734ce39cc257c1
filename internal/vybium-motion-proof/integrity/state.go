// Package integrity arbitrates the process-wide game state from concurrently
// completing proof verdicts, and schedules proving work on a bounded worker
// pool so the simulation tick is never stalled.
package integrity

import (
	"sync"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/prover"
)

// State is the process-wide integrity state
type State int

const (
	// StateNormal is the initial and default state
	StateNormal State = iota

	// StateViolationDetected is entered on the first Invalid verdict for the
	// current epoch and is terminal until an external reset
	StateViolationDetected
)

func (s State) String() string {
	if s == StateViolationDetected {
		return "violation-detected"
	}
	return "normal"
}

// Snapshot is an atomic view of state, epoch and violation reason. A reader
// never observes a new epoch paired with a stale state or vice versa.
type Snapshot struct {
	State  State
	Epoch  uint64
	Reason string
}

// Machine owns the integrity state. All mutation is serialized behind one
// mutex; worker goroutines apply verdicts and the tick loop reads snapshots.
type Machine struct {
	mu     sync.Mutex
	state  State
	epoch  uint64
	reason string
}

// NewMachine creates a state machine in StateNormal at epoch 0
func NewMachine() *Machine {
	return &Machine{state: StateNormal}
}

// ApplyVerdict feeds one verification outcome into the machine. Verdicts
// tagged with a stale epoch are discarded unconditionally: completion order
// never decides a transition, only the epoch check does. Returns true when
// the verdict moved the machine into StateViolationDetected.
func (m *Machine) ApplyVerdict(v *prover.Verdict) bool {
	if v == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v.Epoch != m.epoch {
		return false
	}
	if m.state == StateViolationDetected {
		return false
	}
	if v.Outcome == prover.OutcomeValid {
		return false
	}

	m.state = StateViolationDetected
	m.reason = v.Reason
	return true
}

// Reset returns the machine to StateNormal and increments the epoch,
// invalidating every verdict still in flight for the previous epoch.
// Returns the new epoch.
func (m *Machine) Reset() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.epoch++
	m.state = StateNormal
	m.reason = ""
	return m.epoch
}

// Snapshot returns an atomic view of the machine
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		State:  m.state,
		Epoch:  m.epoch,
		Reason: m.reason,
	}
}

// Epoch returns the current epoch
func (m *Machine) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}
