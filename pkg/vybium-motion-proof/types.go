package vybiummotionproof

import (
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/integrity"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/prover"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/trace"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// Config holds the proving pipeline parameters. All positions and velocities
// are milli-pixel fixed point: 1 pixel = 1000 units.
type Config = utils.Params

// DefaultConfig returns the default pipeline parameters
func DefaultConfig() *Config {
	return utils.DefaultParams()
}

// LoadConfig reads parameters from a YAML file, overlaying the defaults
func LoadConfig(path string) (*Config, error) {
	params, err := utils.LoadParams(path)
	if err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "failed to load configuration",
			Cause:   err,
		}
	}
	return params, nil
}

// InputFlags captures the directional inputs held during one tick
type InputFlags = trace.InputFlags

// Sample is one tick's observed motion state
type Sample = trace.Sample

// Trace is a fixed-length window of consecutive samples
type Trace = trace.Trace

// Proof attests that a trace satisfies the motion constraints
type Proof = prover.Proof

// PublicInputs is the publicly bound portion of a proof
type PublicInputs = prover.PublicInputs

// Verdict is the result of verifying a proof
type Verdict = prover.Verdict

// Outcome is a verification outcome
type Outcome = prover.Outcome

const (
	// OutcomeValid means the opened rows satisfied every constraint
	OutcomeValid = prover.OutcomeValid

	// OutcomeInvalid means a constraint was violated
	OutcomeInvalid = prover.OutcomeInvalid
)

// IntegrityState is the process-wide integrity state
type IntegrityState = integrity.State

const (
	// StateNormal is the initial and default state
	StateNormal = integrity.StateNormal

	// StateViolationDetected is entered on the first Invalid verdict and is
	// terminal until a reset
	StateViolationDetected = integrity.StateViolationDetected
)

// StatsSnapshot is a point-in-time copy of the pipeline counters
type StatsSnapshot = integrity.StatsSnapshot
