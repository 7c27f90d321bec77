// Command fracturesim prints synthetic diagnostic reports as indented JSON,
// one per analysis, without starting the web server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fracturedetect/internal/model"
	"github.com/fracturedetect/internal/simulator"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("fracturesim failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fracturesim", flag.ContinueOnError)
	n := fs.Int("n", 1, "Number of reports to generate")
	seed := fs.Uint64("seed", 0, "Random seed (0 = random)")
	latency := fs.Duration("latency", 0, "Simulated latency per report")
	rate := fs.Float64("fracture-rate", simulator.DefaultFractureRate, "Probability of a detected fracture")
	if err := fs.Parse(args); err != nil {
		return err
	}

	imageRef := "patient_xray_1025.png"
	if fs.NArg() > 0 {
		imageRef = fs.Arg(0)
	}
	if *n < 1 {
		return fmt.Errorf("-n must be at least 1")
	}

	opts := []simulator.Option{
		simulator.WithLatency(*latency),
		simulator.WithFractureRate(*rate),
	}
	if *seed != 0 {
		opts = append(opts, simulator.WithRand(rand.New(rand.NewPCG(*seed, *seed))))
	}
	sim := simulator.New(opts...)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "    ")

	for i := 0; i < *n; i++ {
		logger.Info("processing image", "image", imageRef, "run", i+1)
		start := time.Now()

		report, err := sim.Analyze(context.Background(), model.AnalysisRequest{ImageRef: imageRef})
		if err != nil {
			return err
		}
		logger.Info("inference complete", "status", report.Status, "elapsed", time.Since(start).Round(time.Millisecond))

		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}
