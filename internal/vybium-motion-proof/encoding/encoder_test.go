package encoding

import (
	"errors"
	"testing"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/utils"
)

// TestNewEncoder tests encoder construction
func TestNewEncoder(t *testing.T) {
	if _, err := NewEncoder(utils.DefaultParams()); err != nil {
		t.Fatalf("NewEncoder failed on defaults: %v", err)
	}

	bad := utils.DefaultParams()
	bad.Speed = 0
	if _, err := NewEncoder(bad); err == nil {
		t.Error("Expected error for invalid params")
	}
}

// TestPositionRoundTrip tests that decode inverts encode across the range
func TestPositionRoundTrip(t *testing.T) {
	enc, err := NewEncoder(utils.DefaultParams())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	values := []int64{0, 1, -1, 3000, -3000, 50_000_000, -50_000_000}
	for _, v := range values {
		elem, err := enc.EncodePosition(v)
		if err != nil {
			t.Fatalf("EncodePosition(%d) failed: %v", v, err)
		}
		back, err := enc.DecodePosition(elem)
		if err != nil {
			t.Fatalf("DecodePosition failed for %d: %v", v, err)
		}
		if back != v {
			t.Errorf("Position round trip: %d -> %d", v, back)
		}
	}
}

// TestVelocityRoundTrip tests velocity encoding across the range
func TestVelocityRoundTrip(t *testing.T) {
	enc, err := NewEncoder(utils.DefaultParams())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	values := []int64{0, 200, -200, 1000, -1000}
	for _, v := range values {
		elem, err := enc.EncodeVelocity(v)
		if err != nil {
			t.Fatalf("EncodeVelocity(%d) failed: %v", v, err)
		}
		back, err := enc.DecodeVelocity(elem)
		if err != nil {
			t.Fatalf("DecodeVelocity failed for %d: %v", v, err)
		}
		if back != v {
			t.Errorf("Velocity round trip: %d -> %d", v, back)
		}
	}
}

// TestEncodingOverflow tests range enforcement
func TestEncodingOverflow(t *testing.T) {
	enc, err := NewEncoder(utils.DefaultParams())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	tests := []struct {
		name     string
		encode   func() error
		quantity string
	}{
		{"position too large", func() error { _, err := enc.EncodePosition(50_000_001); return err }, "position"},
		{"position too small", func() error { _, err := enc.EncodePosition(-50_000_001); return err }, "position"},
		{"velocity too large", func() error { _, err := enc.EncodeVelocity(1001); return err }, "velocity"},
		{"velocity too small", func() error { _, err := enc.EncodeVelocity(-1001); return err }, "velocity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.encode()
			if err == nil {
				t.Fatal("Expected overflow error")
			}
			var overflow *OverflowError
			if !errors.As(err, &overflow) {
				t.Fatalf("Expected OverflowError, got %T", err)
			}
			if overflow.Quantity != tt.quantity {
				t.Errorf("Expected quantity %s, got %s", tt.quantity, overflow.Quantity)
			}
		})
	}
}

// TestEncodeFlag tests boolean encoding
func TestEncodeFlag(t *testing.T) {
	enc, err := NewEncoder(utils.DefaultParams())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	if enc.EncodeFlag(false).Value() != 0 {
		t.Error("false should encode to 0")
	}
	if enc.EncodeFlag(true).Value() != 1 {
		t.Error("true should encode to 1")
	}
}

// TestZeroEncodings tests the zero shorthand values
func TestZeroEncodings(t *testing.T) {
	params := utils.DefaultParams()
	enc, err := NewEncoder(params)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	zp, err := enc.EncodePosition(0)
	if err != nil {
		t.Fatalf("EncodePosition(0) failed: %v", err)
	}
	if !enc.ZeroPosition().Equal(zp) {
		t.Error("ZeroPosition should equal EncodePosition(0)")
	}

	zv, err := enc.EncodeVelocity(0)
	if err != nil {
		t.Fatalf("EncodeVelocity(0) failed: %v", err)
	}
	if !enc.ZeroVelocity().Equal(zv) {
		t.Error("ZeroVelocity should equal EncodeVelocity(0)")
	}
}

// TestDecodeRejectsOutOfRange tests decoding of values never produced by
// the encoder
func TestDecodeRejectsOutOfRange(t *testing.T) {
	enc, err := NewEncoder(utils.DefaultParams())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	big, err := enc.EncodePosition(50_000_000)
	if err != nil {
		t.Fatalf("EncodePosition failed: %v", err)
	}
	// One past the largest legal encoding
	if _, err := enc.DecodeVelocity(big); err == nil {
		t.Error("Expected error decoding a position encoding as velocity")
	}
}
