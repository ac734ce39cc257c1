package integration_test

import (
	"testing"
	"time"

	motionproof "github.com/vybium/vybium-motion-proof/pkg/vybium-motion-proof"
)

// honestSession drives legal motion: stationary origin first, then physics
// applied exactly as the game's integer update rule would.
type honestSession struct {
	config *motionproof.Config
	posX   int64
	posY   int64
	tick   int
}

func (s *honestSession) next(in motionproof.InputFlags) motionproof.TickInput {
	if s.tick == 0 {
		s.tick++
		return motionproof.TickInput{}
	}
	s.tick++

	velX := int64(btoi(in.Right)-btoi(in.Left)) * s.config.Speed
	velY := int64(btoi(in.Up)-btoi(in.Down)) * s.config.Speed
	s.posX += velX * s.config.TimestepFactor
	s.posY += velY * s.config.TimestepFactor

	return motionproof.TickInput{
		PosX:   s.posX,
		PosY:   s.posY,
		VelX:   velX,
		VelY:   velY,
		Inputs: in,
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func waitForSnapshot(t *testing.T, g *motionproof.Guard, what string, cond func(motionproof.GuardSnapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond(g.Snapshot()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s; snapshot: %+v", what, g.Snapshot())
}

// Test01_HonestSession tests the full pipeline on a legitimate play session:
// 1. Record several windows of legal movement in varying directions
// 2. Let the worker pool prove and verify every sealed trace
// 3. Confirm the integrity state never leaves Normal
func Test01_HonestSession(t *testing.T) {
	t.Log("=== Test 01: Honest Session -> All Proofs Valid ===")

	config := motionproof.DefaultConfig()
	config.TraceLength = 4

	guard, err := motionproof.NewGuard(config)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	defer guard.Close()

	t.Log("Step 1: Recording legal movement...")
	session := &honestSession{config: config}
	moves := []motionproof.InputFlags{
		{},
		{Right: true},
		{Right: true},
		{Right: true, Up: true},
		{Up: true},
		{Left: true, Right: true}, // opposing inputs cancel
		{Left: true},
		{Down: true},
	}
	for round := 0; round < 4; round++ {
		for _, in := range moves {
			if err := guard.OnTick(session.next(in)); err != nil {
				t.Fatalf("OnTick failed: %v", err)
			}
		}
	}

	t.Log("Step 2: Waiting for the worker pool to drain...")
	waitForSnapshot(t, guard, "proofs to complete", func(s motionproof.GuardSnapshot) bool {
		return s.Stats.ProofsVerified >= 5
	})

	t.Log("Step 3: Checking the integrity state...")
	snap := guard.Snapshot()
	if snap.State != motionproof.StateNormal {
		t.Fatalf("Honest session tripped the guard: %s", snap.Reason)
	}
	if snap.Stats.FailedVerifications != 0 {
		t.Fatalf("Expected no failed verifications, got %d", snap.Stats.FailedVerifications)
	}
	if snap.Stats.ProofsGenerated != snap.Stats.ProofsVerified {
		t.Errorf("Every generated proof should be verified: %d vs %d",
			snap.Stats.ProofsGenerated, snap.Stats.ProofsVerified)
	}

	t.Logf("Session complete: %d proofs, avg generation %v, avg verification %v",
		snap.Stats.ProofsVerified, snap.Stats.AvgGeneration, snap.Stats.AvgVerification)
}
