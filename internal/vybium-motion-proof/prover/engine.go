package prover

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/air"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/core"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// Engine generates and verifies movement-integrity proofs. Safe for
// concurrent use: all state is immutable after construction.
type Engine struct {
	params *utils.Params
	system *air.System
}

// NewEngine creates a proof engine for the given parameters
func NewEngine(params *utils.Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine params: %w", err)
	}

	system, err := air.NewSystem(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create constraint system: %w", err)
	}

	return &Engine{
		params: params.Clone(),
		system: system,
	}, nil
}

// Params returns the engine's parameters
func (e *Engine) Params() *utils.Params {
	return e.params.Clone()
}

// Generate builds a proof that the matrix satisfies the constraint system.
//
// On the instrumented path every constraint is walked against every row
// before committing, and the first violation aborts with a GenerationError.
// The optimized path skips the walk; a constraint-violating matrix then still
// yields a structurally well-formed proof, which is exactly why Verify must
// run on every generated proof.
func (e *Engine) Generate(m *air.Matrix, pub PublicInputs) (*Proof, error) {
	if m == nil {
		return nil, fmt.Errorf("matrix is nil")
	}
	if int(pub.Height) != m.Height() {
		return nil, fmt.Errorf("public height %d does not match matrix height %d", pub.Height, m.Height())
	}
	if m.Height() != e.params.Height() {
		return nil, fmt.Errorf("matrix height %d does not match configured height %d", m.Height(), e.params.Height())
	}

	if e.params.Instrumented {
		if v := e.system.CheckMatrix(m, pub.FirstAfterReset); v != nil {
			return nil, &GenerationError{Violation: v}
		}
	}

	// Commit to the matrix, one leaf per row
	leaves := make([][]byte, m.Height())
	for i := 0; i < m.Height(); i++ {
		leaves[i] = rowLeaf(m.Row(i))
	}
	tree, err := core.NewMerkleTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("failed to commit to matrix: %w", err)
	}
	root := tree.Root()

	// Derive query positions from the transcript
	channel := utils.NewChannel(e.params.HashFunction)
	channel.Send(root)
	absorbPublicInputs(channel, pub)

	indices, err := queryIndices(channel, pub)
	if err != nil {
		return nil, fmt.Errorf("failed to derive query indices: %w", err)
	}

	openings := make([]RowOpening, 0, len(indices))
	for _, idx := range indices {
		path, err := tree.AuthenticationPath(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to open row %d: %w", idx, err)
		}
		nextPath, err := tree.AuthenticationPath(idx + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to open row %d: %w", idx+1, err)
		}

		openings = append(openings, RowOpening{
			Index:    uint32(idx),
			Row:      copyRow(m.Row(idx)),
			NextRow:  copyRow(m.Row(idx + 1)),
			Path:     path,
			NextPath: nextPath,
		})
	}

	return &Proof{
		Version:  ProofVersion,
		Pub:      pub,
		Root:     root,
		Openings: openings,
	}, nil
}

// Verify checks a proof against the public constraint system, independent of
// how it was produced. A structural defect (wrong version, broken Merkle
// path, missing opening) is returned as an error; a constraint violation is
// an Invalid verdict with a reason naming the constraint and row. Verifying
// the same proof twice yields the same outcome.
func (e *Engine) Verify(proof *Proof) (*Verdict, error) {
	if proof == nil {
		return nil, fmt.Errorf("proof is nil")
	}
	if proof.Version != ProofVersion {
		return nil, fmt.Errorf("unsupported proof version %d", proof.Version)
	}
	if len(proof.Root) == 0 {
		return nil, fmt.Errorf("proof has an empty commitment")
	}
	if int(proof.Pub.Height) != e.params.Height() {
		return nil, fmt.Errorf("proof height %d does not match configured height %d",
			proof.Pub.Height, e.params.Height())
	}
	// The query count is a verifier parameter, not a prover claim; accepting
	// the proof's own count would let a forged proof open nothing at all.
	if int(proof.Pub.NumQueries) != e.params.NumQueries {
		return nil, fmt.Errorf("proof query count %d does not match configured count %d",
			proof.Pub.NumQueries, e.params.NumQueries)
	}

	// Re-derive the query positions the prover was bound to
	channel := utils.NewChannel(e.params.HashFunction)
	channel.Send(proof.Root)
	absorbPublicInputs(channel, proof.Pub)

	indices, err := queryIndices(channel, proof.Pub)
	if err != nil {
		return nil, fmt.Errorf("failed to derive query indices: %w", err)
	}
	if len(proof.Openings) != len(indices) {
		return nil, fmt.Errorf("proof has %d openings, expected %d", len(proof.Openings), len(indices))
	}

	for i, opening := range proof.Openings {
		if int(opening.Index) != indices[i] {
			return nil, fmt.Errorf("opening %d is for row %d, expected row %d", i, opening.Index, indices[i])
		}
		if len(opening.Row) != air.NumColumns || len(opening.NextRow) != air.NumColumns {
			return nil, fmt.Errorf("opening %d has malformed rows", i)
		}

		if !core.VerifyPath(proof.Root, rowLeaf(opening.Row), opening.Path) {
			return nil, fmt.Errorf("opening %d: row %d fails Merkle authentication", i, opening.Index)
		}
		if !core.VerifyPath(proof.Root, rowLeaf(opening.NextRow), opening.NextPath) {
			return nil, fmt.Errorf("opening %d: row %d fails Merkle authentication", i, opening.Index+1)
		}
	}

	// All openings are bound to the commitment; now evaluate the constraints
	for _, opening := range proof.Openings {
		idx := int(opening.Index)

		if idx == 0 && proof.Pub.FirstAfterReset {
			if v := e.system.CheckOrigin(opening.Row); v != nil {
				return invalidVerdict(proof, v), nil
			}
		}

		if v := e.system.CheckRow(opening.Row, idx); v != nil {
			return invalidVerdict(proof, v), nil
		}
		if v := e.system.CheckRow(opening.NextRow, idx+1); v != nil {
			return invalidVerdict(proof, v), nil
		}
		if v := e.system.CheckTransition(opening.Row, opening.NextRow, idx); v != nil {
			return invalidVerdict(proof, v), nil
		}
	}

	return &Verdict{
		TraceID: proof.Pub.TraceID,
		Epoch:   proof.Pub.Epoch,
		Outcome: OutcomeValid,
	}, nil
}

func invalidVerdict(proof *Proof, v *air.Violation) *Verdict {
	return &Verdict{
		TraceID: proof.Pub.TraceID,
		Epoch:   proof.Pub.Epoch,
		Outcome: OutcomeInvalid,
		Reason:  v.Error(),
	}
}

func copyRow(row []field.Element) []field.Element {
	out := make([]field.Element, len(row))
	copy(out, row)
	return out
}
