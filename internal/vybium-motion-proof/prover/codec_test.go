package prover

import (
	"bytes"
	"testing"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// TestProofRoundTrip tests that a serialized proof verifies after decoding
func TestProofRoundTrip(t *testing.T) {
	params := utils.DefaultParams()
	tr := legalTrace(params)
	engine, proof := generateProof(t, tr, params)

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	decoded := new(Proof)
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if decoded.Version != proof.Version {
		t.Errorf("Version changed: %d -> %d", proof.Version, decoded.Version)
	}
	if decoded.Pub != proof.Pub {
		t.Errorf("Public inputs changed: %+v -> %+v", proof.Pub, decoded.Pub)
	}
	if !bytes.Equal(decoded.Root, proof.Root) {
		t.Error("Commitment changed in the round trip")
	}
	if len(decoded.Openings) != len(proof.Openings) {
		t.Fatalf("Opening count changed: %d -> %d", len(proof.Openings), len(decoded.Openings))
	}

	verdict, err := engine.Verify(decoded)
	if err != nil {
		t.Fatalf("Verify of decoded proof failed: %v", err)
	}
	if verdict.Outcome != OutcomeValid {
		t.Errorf("Decoded proof rejected: %s", verdict.Reason)
	}
}

// TestUnmarshalRejectsTruncation tests every truncation point
func TestUnmarshalRejectsTruncation(t *testing.T) {
	params := utils.DefaultParams()
	tr := legalTrace(params)
	_, proof := generateProof(t, tr, params)

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	for cut := 0; cut < len(data); cut += 7 {
		decoded := new(Proof)
		if err := decoded.UnmarshalBinary(data[:cut]); err == nil {
			t.Errorf("Truncation at %d of %d bytes should fail", cut, len(data))
		}
	}
}

// TestUnmarshalRejectsTrailingBytes tests strict framing
func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	params := utils.DefaultParams()
	tr := legalTrace(params)
	_, proof := generateProof(t, tr, params)

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	decoded := new(Proof)
	if err := decoded.UnmarshalBinary(append(data, 0x00)); err == nil {
		t.Error("Trailing bytes should fail decoding")
	}
}

// TestUnmarshalRejectsBadVersion tests version gating at the codec layer
func TestUnmarshalRejectsBadVersion(t *testing.T) {
	params := utils.DefaultParams()
	tr := legalTrace(params)
	_, proof := generateProof(t, tr, params)

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	data[0] = 0xee
	decoded := new(Proof)
	if err := decoded.UnmarshalBinary(data); err == nil {
		t.Error("Unknown version byte should fail decoding")
	}
}

// TestUnmarshalRejectsEmpty tests the degenerate inputs
func TestUnmarshalRejectsEmpty(t *testing.T) {
	decoded := new(Proof)
	if err := decoded.UnmarshalBinary(nil); err == nil {
		t.Error("Nil data should fail decoding")
	}
	if err := decoded.UnmarshalBinary([]byte{}); err == nil {
		t.Error("Empty data should fail decoding")
	}
}
