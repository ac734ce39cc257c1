package air

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// ConstraintKind identifies a constraint family
type ConstraintKind int

const (
	// ConstraintBooleanInput forces each input column b to satisfy b*(b-1) = 0
	ConstraintBooleanInput ConstraintKind = iota

	// ConstraintVelocity pins velocity to (inPos - inNeg)*speed + offset
	ConstraintVelocity

	// ConstraintContinuity forces pos[i+1] = pos[i] + (vel[i+1] - offset)*timestep
	ConstraintContinuity

	// ConstraintOrigin forces the first row after a reset to the encoded origin
	ConstraintOrigin
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintBooleanInput:
		return "boolean-input"
	case ConstraintVelocity:
		return "velocity consistency"
	case ConstraintContinuity:
		return "position continuity"
	case ConstraintOrigin:
		return "origin"
	default:
		return "unknown"
	}
}

// Violation reports the first constraint that evaluated to nonzero
type Violation struct {
	Kind   ConstraintKind
	Row    int
	Column int
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s violated at row %d (column %s)", v.Kind, v.Row, columnNames[v.Column])
}

// System holds the encoded physics constants the constraints evaluate
// against. Each constraint has algebraic degree at most 2.
type System struct {
	speed          field.Element
	velocityOffset field.Element
	timestepFactor field.Element
	originPosition field.Element // encodePosition(0)
	originVelocity field.Element // encodeVelocity(0)
}

// NewSystem creates the constraint system for the given parameters
func NewSystem(params *utils.Params) (*System, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid constraint params: %w", err)
	}

	return &System{
		speed:          field.New(uint64(params.Speed)),
		velocityOffset: field.New(uint64(params.VelocityOffset)),
		timestepFactor: field.New(uint64(params.TimestepFactor)),
		originPosition: field.New(uint64(params.PositionOffset)),
		originVelocity: field.New(uint64(params.VelocityOffset)),
	}, nil
}

// CheckRow evaluates the per-row constraints (boolean-input and velocity
// consistency) on a single row.
func (s *System) CheckRow(row []field.Element, rowIndex int) *Violation {
	for _, col := range []int{ColInUp, ColInDown, ColInLeft, ColInRight} {
		b := row[col]
		// b*(b-1) = 0
		if !b.Mul(b.Sub(field.One)).IsZero() {
			return &Violation{Kind: ConstraintBooleanInput, Row: rowIndex, Column: col}
		}
	}

	// vel = (inPos - inNeg)*speed + offset, per axis
	expectedX := row[ColInRight].Sub(row[ColInLeft]).Mul(s.speed).Add(s.velocityOffset)
	if !row[ColVelX].Equal(expectedX) {
		return &Violation{Kind: ConstraintVelocity, Row: rowIndex, Column: ColVelX}
	}

	expectedY := row[ColInUp].Sub(row[ColInDown]).Mul(s.speed).Add(s.velocityOffset)
	if !row[ColVelY].Equal(expectedY) {
		return &Violation{Kind: ConstraintVelocity, Row: rowIndex, Column: ColVelY}
	}

	return nil
}

// CheckTransition evaluates position continuity between a row and its
// successor. The successor row's velocity validates the position change,
// matching the order the game's integer physics applies updates in.
func (s *System) CheckTransition(row, next []field.Element, rowIndex int) *Violation {
	deltaX := next[ColVelX].Sub(s.velocityOffset).Mul(s.timestepFactor)
	if !next[ColPosX].Equal(row[ColPosX].Add(deltaX)) {
		return &Violation{Kind: ConstraintContinuity, Row: rowIndex + 1, Column: ColPosX}
	}

	deltaY := next[ColVelY].Sub(s.velocityOffset).Mul(s.timestepFactor)
	if !next[ColPosY].Equal(row[ColPosY].Add(deltaY)) {
		return &Violation{Kind: ConstraintContinuity, Row: rowIndex + 1, Column: ColPosY}
	}

	return nil
}

// CheckOrigin enforces that the first row of a post-reset trace starts at the
// encoded origin with encoded zero velocity.
func (s *System) CheckOrigin(row []field.Element) *Violation {
	if !row[ColPosX].Equal(s.originPosition) {
		return &Violation{Kind: ConstraintOrigin, Row: 0, Column: ColPosX}
	}
	if !row[ColPosY].Equal(s.originPosition) {
		return &Violation{Kind: ConstraintOrigin, Row: 0, Column: ColPosY}
	}
	if !row[ColVelX].Equal(s.originVelocity) {
		return &Violation{Kind: ConstraintOrigin, Row: 0, Column: ColVelX}
	}
	if !row[ColVelY].Equal(s.originVelocity) {
		return &Violation{Kind: ConstraintOrigin, Row: 0, Column: ColVelY}
	}
	return nil
}

// CheckMatrix walks every constraint against every row. Used by the
// instrumented generation path; returns the first violation found or nil.
func (s *System) CheckMatrix(m *Matrix, firstAfterReset bool) *Violation {
	if firstAfterReset {
		if v := s.CheckOrigin(m.Row(0)); v != nil {
			return v
		}
	}

	height := m.Height()
	for i := 0; i < height; i++ {
		if v := s.CheckRow(m.Row(i), i); v != nil {
			return v
		}
		if i+1 < height {
			if v := s.CheckTransition(m.Row(i), m.Row(i+1), i); v != nil {
				return v
			}
		}
	}

	return nil
}
