// Command motion-prover runs the movement integrity pipeline over a stream
// of simulation ticks.
//
// It reads one JSON object per line from stdin, one per tick, and writes one
// JSON event per line to stdout: a "violation" event the moment the pipeline
// detects cheating motion, and a final "summary" event at end of stream.
// Logs go to stderr.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	motionproof "github.com/vybium/vybium-motion-proof/pkg/vybium-motion-proof"
)

// TickLine is the wire format of one input line. Positions and velocities
// are milli-pixel fixed point.
type TickLine struct {
	PosX  int64 `json:"pos_x"`
	PosY  int64 `json:"pos_y"`
	VelX  int64 `json:"vel_x"`
	VelY  int64 `json:"vel_y"`
	Up    bool  `json:"up"`
	Down  bool  `json:"down"`
	Left  bool  `json:"left"`
	Right bool  `json:"right"`
	Reset bool  `json:"reset,omitempty"`
}

// EventLine is the wire format of one output line
type EventLine struct {
	Event  string                     `json:"event"`
	Tick   uint64                     `json:"tick,omitempty"`
	State  string                     `json:"state,omitempty"`
	Epoch  uint64                     `json:"epoch,omitempty"`
	Reason string                     `json:"reason,omitempty"`
	Stats  *motionproof.StatsSnapshot `json:"stats,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	statsPath := flag.String("stats", "", "write final pipeline stats JSON to this file")
	instrumented := flag.Bool("instrumented", false, "check constraints during generation as well")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	config := motionproof.DefaultConfig()
	if *configPath != "" {
		loaded, err := motionproof.LoadConfig(*configPath)
		if err != nil {
			fatal(logger, "failed to load config", err)
		}
		config = loaded
	}
	if *instrumented {
		config = config.WithInstrumented(true)
	}

	guard, err := motionproof.NewGuard(config, motionproof.WithLogger(logger))
	if err != nil {
		fatal(logger, "failed to create guard", err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var tick uint64
	violated := false

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var in TickLine
		if err := json.Unmarshal(line, &in); err != nil {
			fatal(logger, fmt.Sprintf("failed to parse tick %d", tick), err)
		}

		err := guard.OnTick(motionproof.TickInput{
			PosX: in.PosX,
			PosY: in.PosY,
			VelX: in.VelX,
			VelY: in.VelY,
			Inputs: motionproof.InputFlags{
				Up:    in.Up,
				Down:  in.Down,
				Left:  in.Left,
				Right: in.Right,
			},
			Reset: in.Reset,
		})
		if err != nil {
			fatal(logger, fmt.Sprintf("failed to record tick %d", tick), err)
		}
		tick++

		if in.Reset {
			violated = false
		}

		snap := guard.Snapshot()
		if snap.State == motionproof.StateViolationDetected && !violated {
			violated = true
			emit(out, EventLine{
				Event:  "violation",
				Tick:   tick,
				State:  snap.State.String(),
				Epoch:  snap.Epoch,
				Reason: snap.Reason,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		fatal(logger, "failed to read input", err)
	}

	if err := guard.Close(); err != nil {
		fatal(logger, "failed to close guard", err)
	}

	snap := guard.Snapshot()
	emit(out, EventLine{
		Event:  "summary",
		Tick:   tick,
		State:  snap.State.String(),
		Epoch:  snap.Epoch,
		Reason: snap.Reason,
		Stats:  &snap.Stats,
	})

	if *statsPath != "" {
		data, err := json.MarshalIndent(snap.Stats, "", "  ")
		if err != nil {
			fatal(logger, "failed to marshal stats", err)
		}
		if err := os.WriteFile(*statsPath, data, 0o644); err != nil {
			fatal(logger, "failed to write stats file", err)
		}
	}

	logger.Info("stream complete",
		"ticks", tick,
		"state", snap.State.String(),
		"proofs_generated", snap.Stats.ProofsGenerated,
		"failed_verifications", snap.Stats.FailedVerifications)
}

func emit(out *bufio.Writer, ev EventLine) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	out.Write(data)
	out.WriteByte('\n')
	out.Flush()
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
