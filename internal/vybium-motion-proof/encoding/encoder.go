// Package encoding maps signed fixed-point physical quantities onto
// non-negative Goldilocks field elements, and back. The constraint system
// operates on the encoded integers, so the round trip must be exact.
package encoding

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// OverflowError reports a physical value outside its declared encodable range.
// The pipeline treats an overflowing sample as invalid movement by policy.
type OverflowError struct {
	Quantity string
	Value    int64
	Max      int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("encoding overflow: %s value %d outside range ±%d", e.Quantity, e.Value, e.Max)
}

// Encoder shifts signed quantities by a fixed offset so every representable
// value lands strictly inside the field modulus. offset >= max, so the
// smallest encodable value maps to a non-negative integer.
type Encoder struct {
	positionMax    int64
	positionOffset int64
	velocityMax    int64
	velocityOffset int64
}

// NewEncoder creates an encoder for the given parameters
func NewEncoder(params *utils.Params) (*Encoder, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder params: %w", err)
	}

	// The largest encoded value must not wrap the Goldilocks modulus
	maxEncoded := uint64(params.PositionOffset) + uint64(params.PositionMax)
	if maxEncoded >= field.P {
		return nil, fmt.Errorf("position range %d does not fit the field modulus", maxEncoded)
	}

	return &Encoder{
		positionMax:    params.PositionMax,
		positionOffset: params.PositionOffset,
		velocityMax:    params.VelocityMax,
		velocityOffset: params.VelocityOffset,
	}, nil
}

// EncodePosition encodes a signed fixed-point position coordinate
func (e *Encoder) EncodePosition(p int64) (field.Element, error) {
	if p < -e.positionMax || p > e.positionMax {
		return field.Zero, &OverflowError{Quantity: "position", Value: p, Max: e.positionMax}
	}
	return field.New(uint64(p + e.positionOffset)), nil
}

// EncodeVelocity encodes a signed velocity component
func (e *Encoder) EncodeVelocity(v int64) (field.Element, error) {
	if v < -e.velocityMax || v > e.velocityMax {
		return field.Zero, &OverflowError{Quantity: "velocity", Value: v, Max: e.velocityMax}
	}
	return field.New(uint64(v + e.velocityOffset)), nil
}

// EncodeFlag encodes a boolean input flag as 0 or 1
func (e *Encoder) EncodeFlag(set bool) field.Element {
	if set {
		return field.One
	}
	return field.Zero
}

// DecodePosition is the exact inverse of EncodePosition
func (e *Encoder) DecodePosition(elem field.Element) (int64, error) {
	raw := elem.Value()
	if raw > uint64(e.positionOffset+e.positionMax) {
		return 0, fmt.Errorf("encoded position %d outside the declared range", raw)
	}
	return int64(raw) - e.positionOffset, nil
}

// DecodeVelocity is the exact inverse of EncodeVelocity
func (e *Encoder) DecodeVelocity(elem field.Element) (int64, error) {
	raw := elem.Value()
	if raw > uint64(e.velocityOffset+e.velocityMax) {
		return 0, fmt.Errorf("encoded velocity %d outside the declared range", raw)
	}
	return int64(raw) - e.velocityOffset, nil
}

// ZeroPosition returns the encoding of position 0
func (e *Encoder) ZeroPosition() field.Element {
	return field.New(uint64(e.positionOffset))
}

// ZeroVelocity returns the encoding of velocity 0
func (e *Encoder) ZeroVelocity() field.Element {
	return field.New(uint64(e.velocityOffset))
}
