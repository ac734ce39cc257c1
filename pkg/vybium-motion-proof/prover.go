package vybiummotionproof

import (
	"errors"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/air"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/encoding"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/prover"
)

// Prover generates and verifies motion proofs synchronously. For the
// asynchronous pipeline that drives a game tick loop, use Guard instead.
type Prover struct {
	config  *Config
	encoder *encoding.Encoder
	engine  *prover.Engine
}

// NewProver creates a prover with the given configuration
func NewProver(config *Config) (*Prover, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "invalid configuration",
			Cause:   err,
		}
	}

	encoder, err := encoding.NewEncoder(config)
	if err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "failed to create encoder",
			Cause:   err,
		}
	}
	engine, err := prover.NewEngine(config)
	if err != nil {
		return nil, &GuardError{
			Code:    ErrInvalidConfig,
			Message: "failed to create proof engine",
			Cause:   err,
		}
	}

	return &Prover{
		config:  config,
		encoder: encoder,
		engine:  engine,
	}, nil
}

// ProveTrace builds the constraint matrix for a sealed trace and generates a
// proof over it. The trace must contain exactly the configured number of
// samples.
func (p *Prover) ProveTrace(t *Trace) (*Proof, error) {
	if t == nil {
		return nil, &GuardError{
			Code:    ErrTraceBoundary,
			Message: "trace is nil",
		}
	}
	if t.Len() != p.config.TraceLength {
		return nil, &GuardError{
			Code:    ErrTraceBoundary,
			Message: "trace has the wrong number of samples",
		}
	}

	matrix, err := air.BuildMatrix(t, p.encoder, p.config)
	if err != nil {
		var overflow *encoding.OverflowError
		if errors.As(err, &overflow) {
			return nil, &GuardError{
				Code:    ErrEncodingOverflow,
				Message: "trace contains an unencodable quantity",
				Cause:   err,
			}
		}
		return nil, &GuardError{
			Code:    ErrProofGeneration,
			Message: "failed to build constraint matrix",
			Cause:   err,
		}
	}

	pub := prover.PublicInputs{
		TraceID:         t.ID,
		Epoch:           t.Epoch,
		Height:          uint32(matrix.Height()),
		FirstAfterReset: t.FirstAfterReset,
		NumQueries:      uint32(p.config.NumQueries),
	}

	proof, err := p.engine.Generate(matrix, pub)
	if err != nil {
		return nil, &GuardError{
			Code:    ErrProofGeneration,
			Message: "failed to generate proof",
			Cause:   err,
		}
	}
	return proof, nil
}

// VerifyProof checks a proof against the motion constraints. A structurally
// broken proof is an error; a well-formed proof over cheating motion is an
// Invalid verdict with a reason naming the violated constraint.
func (p *Prover) VerifyProof(proof *Proof) (*Verdict, error) {
	verdict, err := p.engine.Verify(proof)
	if err != nil {
		return nil, &GuardError{
			Code:    ErrProofVerification,
			Message: "proof failed structural verification",
			Cause:   err,
		}
	}
	return verdict, nil
}

// MarshalProof serializes a proof to its binary wire format
func MarshalProof(proof *Proof) ([]byte, error) {
	if proof == nil {
		return nil, &GuardError{
			Code:    ErrProofEncoding,
			Message: "proof is nil",
		}
	}
	data, err := proof.MarshalBinary()
	if err != nil {
		return nil, &GuardError{
			Code:    ErrProofEncoding,
			Message: "failed to serialize proof",
			Cause:   err,
		}
	}
	return data, nil
}

// UnmarshalProof deserializes a proof from its binary wire format
func UnmarshalProof(data []byte) (*Proof, error) {
	proof := new(Proof)
	if err := proof.UnmarshalBinary(data); err != nil {
		return nil, &GuardError{
			Code:    ErrProofEncoding,
			Message: "failed to deserialize proof",
			Cause:   err,
		}
	}
	return proof, nil
}
