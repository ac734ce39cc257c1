// Package air defines the algebraic constraints a legal movement trace must
// satisfy, and the field-valued matrix form those constraints are evaluated
// on. The constraint set, not any runtime check, is the sole arbiter of
// legality.
package air

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/encoding"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/trace"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// Column layout of the constraint matrix, one row per sample
const (
	ColPosX = iota
	ColPosY
	ColVelX
	ColVelY
	ColInUp
	ColInDown
	ColInLeft
	ColInRight

	NumColumns
)

// columnNames, indexed by column constant, for violation messages
var columnNames = [NumColumns]string{
	"pos_x", "pos_y", "vel_x", "vel_y", "in_up", "in_down", "in_left", "in_right",
}

// Matrix is the field-encoded form of a trace: height rows of NumColumns
// encoded values. Never mutated after construction.
type Matrix struct {
	rows [][]field.Element
}

// Height returns the number of rows
func (m *Matrix) Height() int {
	return len(m.rows)
}

// Row returns row i. The returned slice must not be modified.
func (m *Matrix) Row(i int) []field.Element {
	return m.rows[i]
}

// NewMatrix wraps pre-encoded rows, validating their shape. Used by the
// verifier when reconstructing opened rows from a proof.
func NewMatrix(rows [][]field.Element) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix cannot be empty")
	}
	if !utils.IsPowerOfTwo(len(rows)) {
		return nil, fmt.Errorf("matrix height %d must be a power of 2", len(rows))
	}
	for i, row := range rows {
		if len(row) != NumColumns {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), NumColumns)
		}
	}
	return &Matrix{rows: rows}, nil
}

// BuildMatrix encodes a trace into a constraint matrix, padding to the next
// power-of-two height with the stationary continuation of the last row. An
// out-of-range quantity surfaces the encoder's overflow error unchanged.
func BuildMatrix(t *trace.Trace, enc *encoding.Encoder, params *utils.Params) (*Matrix, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("cannot arithmetize an empty trace")
	}
	if t.Len() != params.TraceLength {
		return nil, fmt.Errorf("trace has %d samples, expected %d", t.Len(), params.TraceLength)
	}

	height := params.Height()
	rows := make([][]field.Element, 0, height)

	for i, s := range t.Samples {
		row, err := encodeSample(s, enc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	// Padding rows hold position with zero velocity and no inputs, which
	// satisfies every constraint family.
	last := rows[len(rows)-1]
	for len(rows) < height {
		padded := make([]field.Element, NumColumns)
		padded[ColPosX] = last[ColPosX]
		padded[ColPosY] = last[ColPosY]
		padded[ColVelX] = enc.ZeroVelocity()
		padded[ColVelY] = enc.ZeroVelocity()
		padded[ColInUp] = field.Zero
		padded[ColInDown] = field.Zero
		padded[ColInLeft] = field.Zero
		padded[ColInRight] = field.Zero
		rows = append(rows, padded)
		last = padded
	}

	return &Matrix{rows: rows}, nil
}

func encodeSample(s trace.Sample, enc *encoding.Encoder) ([]field.Element, error) {
	row := make([]field.Element, NumColumns)

	var err error
	if row[ColPosX], err = enc.EncodePosition(s.PosX); err != nil {
		return nil, err
	}
	if row[ColPosY], err = enc.EncodePosition(s.PosY); err != nil {
		return nil, err
	}
	if row[ColVelX], err = enc.EncodeVelocity(s.VelX); err != nil {
		return nil, err
	}
	if row[ColVelY], err = enc.EncodeVelocity(s.VelY); err != nil {
		return nil, err
	}

	row[ColInUp] = enc.EncodeFlag(s.Inputs.Up)
	row[ColInDown] = enc.EncodeFlag(s.Inputs.Down)
	row[ColInLeft] = enc.EncodeFlag(s.Inputs.Left)
	row[ColInRight] = enc.EncodeFlag(s.Inputs.Right)

	return row, nil
}
