//go:build analysis

// Command proof-analysis benchmarks the proving pipeline and renders latency
// histograms as a standalone HTML report.
//
// Build with the analysis tag:
//
//	go build -tags analysis ./cmd/proof-analysis
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/trace"
	motionproof "github.com/vybium/vybium-motion-proof/pkg/vybium-motion-proof"
)

type summaryStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

func computeStats(x []float64) summaryStats {
	n := len(x)
	if n == 0 {
		return summaryStats{}
	}
	cp := append([]float64(nil), x...)
	sort.Float64s(cp)
	var m float64
	for _, v := range x {
		m += v
	}
	m /= float64(n)
	var m2 float64
	for _, v := range x {
		d := v - m
		m2 += d * d
	}
	std := 0.0
	if n > 1 {
		std = math.Sqrt(m2 / float64(n-1))
	}
	return summaryStats{
		Count:  n,
		Mean:   m,
		Std:    std,
		Min:    cp[0],
		Median: cp[n/2],
		Max:    cp[n-1],
	}
}

// randomWalkTrace produces a trace a legitimate client could have produced:
// the first sample is the stationary origin, every later velocity follows
// from the held inputs, and every position follows from the velocity.
func randomWalkTrace(rng *rand.Rand, config *motionproof.Config, epoch uint64) *motionproof.Trace {
	samples := make([]trace.Sample, config.TraceLength)
	var posX, posY int64

	for i := range samples {
		var in motionproof.InputFlags
		if i > 0 {
			in = motionproof.InputFlags{
				Up:    rng.Intn(2) == 1,
				Down:  rng.Intn(2) == 1,
				Left:  rng.Intn(2) == 1,
				Right: rng.Intn(2) == 1,
			}
		}

		velX := int64(boolToInt(in.Right)-boolToInt(in.Left)) * config.Speed
		velY := int64(boolToInt(in.Up)-boolToInt(in.Down)) * config.Speed
		posX += velX * config.TimestepFactor
		posY += velY * config.TimestepFactor

		samples[i] = trace.Sample{
			Tick:   uint64(i),
			PosX:   posX,
			PosY:   posY,
			VelX:   velX,
			VelY:   velY,
			Inputs: in,
		}
	}

	return &motionproof.Trace{
		ID:              uuid.New(),
		Epoch:           epoch,
		Samples:         samples,
		FirstAfterReset: true,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toBarItems(vals []int) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func newHistogramChart(title string, values []float64, stats summaryStats) *charts.Bar {
	nbins := 30
	if len(values) < nbins {
		nbins = len(values)
	}
	edges, counts := computeHistogram(values, nbins)
	xLabels := make([]string, len(counts))
	for i := range counts {
		center := 0.5 * (edges[i] + edges[i+1])
		xLabels[i] = fmt.Sprintf("%.3f", center)
	}
	bar := charts.NewBar()
	subtitle := fmt.Sprintf("n=%d, mean=%.3f ms, std=%.3f ms, median=%.3f ms", stats.Count, stats.Mean, stats.Std, stats.Median)
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("count", toBarItems(counts)).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

func computeHistogram(values []float64, nbins int) ([]float64, []int) {
	if nbins < 1 {
		nbins = 1
	}
	minv, maxv := values[0], values[0]
	for _, v := range values {
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	if maxv == minv {
		maxv = minv + 1
	}
	width := (maxv - minv) / float64(nbins)
	edges := make([]float64, nbins+1)
	for i := range edges {
		edges[i] = minv + float64(i)*width
	}
	counts := make([]int, nbins)
	for _, v := range values {
		idx := int((v - minv) / width)
		if idx >= nbins {
			idx = nbins - 1
		}
		counts[idx]++
	}
	return edges, counts
}

func saveJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func main() {
	runs := flag.Int("runs", 100, "number of traces to prove and verify")
	seed := flag.Int64("seed", 1, "random seed for trace generation")
	configPath := flag.String("config", "", "path to YAML configuration file")
	outDir := flag.String("out", "Measure_Reports", "output directory for reports")
	flag.Parse()

	config := motionproof.DefaultConfig()
	if *configPath != "" {
		loaded, err := motionproof.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		config = loaded
	}

	prover, err := motionproof.NewProver(config)
	if err != nil {
		log.Fatalf("create prover: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	genMs := make([]float64, 0, *runs)
	verifyMs := make([]float64, 0, *runs)
	sizes := make([]float64, 0, *runs)

	for i := 0; i < *runs; i++ {
		t := randomWalkTrace(rng, config, 0)

		start := time.Now()
		proof, err := prover.ProveTrace(t)
		if err != nil {
			log.Fatalf("run %d: prove: %v", i, err)
		}
		genMs = append(genMs, float64(time.Since(start).Microseconds())/1000.0)

		start = time.Now()
		verdict, err := prover.VerifyProof(proof)
		if err != nil {
			log.Fatalf("run %d: verify: %v", i, err)
		}
		verifyMs = append(verifyMs, float64(time.Since(start).Microseconds())/1000.0)

		if verdict.Outcome != motionproof.OutcomeValid {
			log.Fatalf("run %d: honest trace rejected: %s", i, verdict.Reason)
		}

		data, err := motionproof.MarshalProof(proof)
		if err != nil {
			log.Fatalf("run %d: marshal: %v", i, err)
		}
		sizes = append(sizes, float64(len(data)))
	}

	outStats := map[string]summaryStats{
		"generation_ms":   computeStats(genMs),
		"verification_ms": computeStats(verifyMs),
		"proof_bytes":     computeStats(sizes),
	}

	ts := time.Now().Format("20060102_150405")
	jsonPath := filepath.Join(*outDir, fmt.Sprintf("proof_latency_%s.json", ts))
	if err := saveJSON(jsonPath, outStats); err != nil {
		log.Printf("warn: save stats: %v", err)
	}

	page := components.NewPage()
	page.AddCharts(newHistogramChart("proof generation (ms)", genMs, outStats["generation_ms"]))
	page.AddCharts(newHistogramChart("proof verification (ms)", verifyMs, outStats["verification_ms"]))
	page.AddCharts(newHistogramChart("proof size (bytes)", sizes, outStats["proof_bytes"]))

	htmlPath := filepath.Join(*outDir, fmt.Sprintf("proof_latency_%s.html", ts))
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("create report: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}

	fmt.Printf("wrote %s and %s\n", jsonPath, htmlPath)
}
