// Package prover builds and verifies succinct proofs that a constraint
// matrix satisfies the movement constraint system. Generation and
// verification are independent: verification never trusts how a proof was
// produced.
package prover

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/air"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/core"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// ProofVersion is bumped whenever the proof byte layout changes
const ProofVersion uint8 = 1

// PublicInputs are the claim a proof attests to. An independent verifier
// needs these plus the public Params, nothing else.
type PublicInputs struct {
	TraceID         uuid.UUID
	Epoch           uint64
	Height          uint32 // padded matrix height, a power of 2
	FirstAfterReset bool
	NumQueries      uint32
}

// RowOpening reveals one matrix row and its successor, with Merkle
// authentication paths binding both to the trace commitment.
type RowOpening struct {
	Index    uint32
	Row      []field.Element
	NextRow  []field.Element
	Path     []core.ProofNode
	NextPath []core.ProofNode
}

// Proof is a self-contained, serializable attestation: the row commitment
// plus the channel-selected openings. Created by Engine.Generate, consumed by
// Engine.Verify or a remote verifier holding the same Params.
type Proof struct {
	Version  uint8
	Pub      PublicInputs
	Root     []byte
	Openings []RowOpening
}

// Outcome is the verification result for a trace
type Outcome int

const (
	// OutcomeValid means every checked constraint evaluated to zero
	OutcomeValid Outcome = iota

	// OutcomeInvalid means some constraint evaluated to nonzero
	OutcomeInvalid
)

func (o Outcome) String() string {
	if o == OutcomeValid {
		return "valid"
	}
	return "invalid"
}

// Verdict is the sole trusted cheat signal: produced once per submitted
// trace, consumed once by the integrity state machine.
type Verdict struct {
	TraceID uuid.UUID
	Epoch   uint64
	Outcome Outcome
	Reason  string
}

// GenerationError reports a constraint violation discovered by the
// instrumented generation path. Equivalent to an Invalid verdict; a
// diagnostic convenience, not a security property.
type GenerationError struct {
	Violation *air.Violation
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("constraint violation at generation time: %s", e.Violation.Error())
}

// rowLeaf computes the Merkle leaf bytes for a matrix row: the Tip5 digest
// of the row's field elements, serialized little-endian.
func rowLeaf(row []field.Element) []byte {
	padded := make([]field.Element, 0, len(row)+2)
	padded = append(padded, row...)
	// Tip5's sponge rate is 10 elements
	for len(padded)%10 != 0 {
		padded = append(padded, field.Zero)
	}

	digest := hash.HashVarlen(padded)

	leaf := make([]byte, len(digest)*8)
	for i, elem := range digest {
		v := elem.Value()
		for k := 0; k < 8; k++ {
			leaf[i*8+k] = byte(v >> (k * 8))
		}
	}
	return leaf
}

// queryIndices derives the set of opened transition indices from the
// Fiat-Shamir channel. Indices are in [0, height-1) so every opening has a
// successor row. When numQueries covers every transition the full range is
// opened; otherwise distinct indices are channel-sampled. A post-reset trace
// always opens index 0 so the origin constraint is checkable.
func queryIndices(channel *utils.Channel, pub PublicInputs) ([]int, error) {
	transitions := int(pub.Height) - 1
	if transitions <= 0 {
		return nil, fmt.Errorf("matrix height %d has no transitions", pub.Height)
	}

	want := int(pub.NumQueries)
	if want >= transitions {
		indices := make([]int, transitions)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	seen := make(map[int]bool, want)
	indices := make([]int, 0, want+1)

	if pub.FirstAfterReset {
		seen[0] = true
		indices = append(indices, 0)
	}

	for len(indices) < want {
		idx, err := channel.ReceiveIndex(transitions)
		if err != nil {
			return nil, err
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}

	return indices, nil
}

// absorbPublicInputs feeds the claim into the Fiat-Shamir channel so query
// positions are bound to it.
func absorbPublicInputs(channel *utils.Channel, pub PublicInputs) {
	channel.Send(pub.TraceID[:])
	channel.SendUint64(pub.Epoch)
	channel.SendUint64(uint64(pub.Height))
	if pub.FirstAfterReset {
		channel.SendUint64(1)
	} else {
		channel.SendUint64(0)
	}
	channel.SendUint64(uint64(pub.NumQueries))
}
