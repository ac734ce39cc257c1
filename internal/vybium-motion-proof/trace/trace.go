// Package trace accumulates per-tick motion samples into fixed-length,
// seamlessly chained windows ready for arithmetization.
package trace

import (
	"fmt"

	"github.com/google/uuid"
)

// InputFlags records which directional inputs were held on a tick
type InputFlags struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Sample is one tick of motion state as reported by the physics collaborator.
// Positions and velocities are signed fixed-point integers (milli-pixel
// units); a sample is immutable once recorded.
type Sample struct {
	Tick   uint64
	PosX   int64
	PosY   int64
	VelX   int64
	VelY   int64
	Inputs InputFlags
}

// Trace is an ordered window of samples. The proof attests that every
// interior transition obeys the physics law, and, for the first trace after a
// reset, that the window starts at the origin with zero velocity.
type Trace struct {
	ID              uuid.UUID
	Epoch           uint64
	Samples         []Sample
	FirstAfterReset bool
}

// Normalize pads or truncates the trace to exactly n samples. Short traces
// are extended with the stationary continuation of the last sample; the
// window is never silently shortened.
func (t *Trace) Normalize(n int) error {
	if n <= 0 {
		return fmt.Errorf("target length must be positive, got %d", n)
	}
	if len(t.Samples) == 0 {
		return fmt.Errorf("cannot normalize an empty trace")
	}

	if len(t.Samples) > n {
		t.Samples = t.Samples[:n]
		return nil
	}

	for len(t.Samples) < n {
		t.Samples = append(t.Samples, stationaryContinuation(t.Samples[len(t.Samples)-1]))
	}
	return nil
}

// Len returns the number of recorded samples
func (t *Trace) Len() int {
	return len(t.Samples)
}

// stationaryContinuation is the unique legal successor of a sample when no
// input is held: same position, zero velocity, no inputs.
func stationaryContinuation(last Sample) Sample {
	return Sample{
		Tick: last.Tick + 1,
		PosX: last.PosX,
		PosY: last.PosY,
		VelX: 0,
		VelY: 0,
	}
}
