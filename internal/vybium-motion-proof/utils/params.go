package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params holds every tunable of the movement-integrity pipeline. The physics
// constants (Speed, TimestepFactor) must match the game's integer update rule
// exactly, otherwise legitimate traces fail the continuity constraint.
type Params struct {
	// Physics parameters, in fixed-point milli-pixel units
	Speed          int64 `yaml:"speed"`           // velocity magnitude per held input
	TimestepFactor int64 `yaml:"timestep_factor"` // position delta = velocity * factor

	// Encoding ranges
	PositionMax    int64 `yaml:"position_max"`    // |position| bound, milli-pixels
	PositionOffset int64 `yaml:"position_offset"` // shift applied before field encoding
	VelocityMax    int64 `yaml:"velocity_max"`    // |velocity| bound
	VelocityOffset int64 `yaml:"velocity_offset"` // shift applied before field encoding

	// Trace parameters
	TraceLength int `yaml:"trace_length"` // samples per trace, padded to a power of 2

	// Proof parameters
	NumQueries int `yaml:"num_queries"` // opened rows per proof; >= height means all rows

	// Scheduling parameters
	Workers     int `yaml:"workers"`      // proof worker pool size
	MaxInflight int `yaml:"max_inflight"` // bounded submission queue depth

	// Instrumented generation walks every constraint before committing.
	// The optimized path skips the walk; verification alone decides validity.
	Instrumented bool `yaml:"instrumented"`

	// Hash function for the Fiat-Shamir channel
	HashFunction string `yaml:"hash_function"`
}

// DefaultParams returns the parameters matching the reference game physics
func DefaultParams() *Params {
	return &Params{
		Speed:          200,
		TimestepFactor: 15,
		PositionMax:    50_000_000,
		PositionOffset: 50_000_000,
		VelocityMax:    1000,
		VelocityOffset: 1000,
		TraceLength:    8,
		NumQueries:     8,
		Workers:        2,
		MaxInflight:    4,
		Instrumented:   false,
		HashFunction:   "sha3",
	}
}

// LoadParams reads parameters from a YAML file, starting from the defaults so
// a partial file only overrides what it names.
func LoadParams(path string) (*Params, error) {
	if path == "" {
		return nil, fmt.Errorf("params file path is empty")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	params := DefaultParams()
	if err := yaml.Unmarshal(content, params); err != nil {
		return nil, fmt.Errorf("failed to parse params file: %w", err)
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params in %s: %w", path, err)
	}

	return params, nil
}

// Validate checks if the parameters are consistent
func (p *Params) Validate() error {
	if p.Speed <= 0 {
		return fmt.Errorf("speed must be positive")
	}

	if p.TimestepFactor <= 0 {
		return fmt.Errorf("timestep factor must be positive")
	}

	if p.PositionMax <= 0 || p.VelocityMax <= 0 {
		return fmt.Errorf("encoding ranges must be positive")
	}

	if p.PositionOffset < p.PositionMax {
		return fmt.Errorf("position offset (%d) must cover the full negative range (%d)",
			p.PositionOffset, p.PositionMax)
	}

	if p.VelocityOffset < p.VelocityMax {
		return fmt.Errorf("velocity offset (%d) must cover the full negative range (%d)",
			p.VelocityOffset, p.VelocityMax)
	}

	if p.Speed > p.VelocityMax {
		return fmt.Errorf("speed (%d) exceeds the representable velocity range (%d)",
			p.Speed, p.VelocityMax)
	}

	if p.TraceLength < 2 {
		return fmt.Errorf("trace length must be at least 2, got %d", p.TraceLength)
	}

	if p.NumQueries <= 0 {
		return fmt.Errorf("number of queries must be positive")
	}

	if p.Workers <= 0 {
		return fmt.Errorf("worker count must be positive")
	}

	if p.MaxInflight <= 0 {
		return fmt.Errorf("max inflight traces must be positive")
	}

	if p.HashFunction != "sha3" && p.HashFunction != "shake" {
		return fmt.Errorf("hash function must be 'sha3' or 'shake', got '%s'", p.HashFunction)
	}

	return nil
}

// Height returns the constraint matrix height for these parameters
func (p *Params) Height() int {
	return NextPowerOfTwo(p.TraceLength)
}

// WithTraceLength sets the number of samples per trace
func (p *Params) WithTraceLength(length int) *Params {
	p.TraceLength = length
	return p
}

// WithNumQueries sets the number of opened rows per proof
func (p *Params) WithNumQueries(queries int) *Params {
	p.NumQueries = queries
	return p
}

// WithWorkers sets the proof worker pool size
func (p *Params) WithWorkers(workers int) *Params {
	p.Workers = workers
	return p
}

// WithInstrumented toggles the instrumented generation path
func (p *Params) WithInstrumented(instrumented bool) *Params {
	p.Instrumented = instrumented
	return p
}

// Clone creates a copy of the parameters
func (p *Params) Clone() *Params {
	clone := *p
	return &clone
}
