// Package vybiummotionproof proves the integrity of 2D character movement
// with succinct algebraic proofs.
//
// Every simulation tick the game records the character's position, velocity
// and held directional inputs. Fixed-length windows of consecutive ticks are
// sealed into traces, each trace is encoded into a finite field constraint
// matrix, and a proof is generated and verified asymmetrically to physics:
// inputs must be boolean, velocity must follow from the held inputs, and each
// position must follow from the previous position and the velocity. A trace
// produced by speed hacks, teleports or forged inputs cannot satisfy the
// constraints, and its proof fails verification.
//
// # Quick Start
//
// Driving the pipeline from a game tick loop:
//
//	config := vybiummotionproof.DefaultConfig()
//	guard, err := vybiummotionproof.NewGuard(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer guard.Close()
//
//	for tick := range ticks {
//		err := guard.OnTick(vybiummotionproof.TickInput{
//			PosX:   tick.PosX,
//			PosY:   tick.PosY,
//			VelX:   tick.VelX,
//			VelY:   tick.VelY,
//			Inputs: tick.Inputs,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if guard.Snapshot().State == vybiummotionproof.StateViolationDetected {
//			// handle the cheater
//		}
//	}
//
// Proving and verifying a single trace synchronously:
//
//	prover, err := vybiummotionproof.NewProver(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proof, err := prover.ProveTrace(trace)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	verdict, err := prover.VerifyProof(proof)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if verdict.Outcome == vybiummotionproof.OutcomeValid {
//		fmt.Println("Motion is honest!")
//	}
//
// # Units
//
// Positions and velocities are milli-pixel fixed point: 1 pixel = 1000
// units. At the default speed of 200 milli-pixels per unit input and a
// timestep factor of 15, a held direction key moves the character 3 pixels
// per tick.
//
// # Architecture
//
// The module uses a hybrid public/private layout:
//
// - pkg/vybium-motion-proof/: Public API (this package)
// - internal/vybium-motion-proof/: Private implementation (not importable)
//
// The public API provides stable interfaces for:
// - The asynchronous tick-loop guard
// - Synchronous proving and verification
// - Proof serialization
// - Common types and errors
//
// Implementation details in internal/ can be refactored without breaking the
// public API.
//
// # License
//
// See LICENSE file in the repository root.
package vybiummotionproof
