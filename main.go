package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nvr-ai/go-convolve/config"
	"github.com/nvr-ai/go-convolve/explorer"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/profiler"
	"github.com/nvr-ai/go-convolve/report"
	"github.com/pkg/errors"
)

const (
	// DefaultOutputDir is where previews are written when -out is not given.
	DefaultOutputDir = "previews"
	// topKernels is the number of best-scoring kernels listed after a run.
	topKernels = 10
)

func main() {
	var (
		configPath   string
		targetPath   string
		sheetPath    string
		shape        string
		maxDim       int
		workers      int
		parallelRows bool
		edge         string
		fitTarget    int
		splitPolicy  string
		outputDir    string
		chartPath    string
		showProfile  bool
		quiet        bool
	)
	defaults := config.Default()
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&targetPath, "target", "", "Path to the target image (.png, .jpg, .webp)")
	flag.StringVar(&sheetPath, "sheet", "", "Path to the kernels sheet image (.png, .jpg, .webp)")
	flag.StringVar(&shape, "shape", defaults.Shape, "Kernel shape: 3x6 or 6x3")
	flag.IntVar(&maxDim, "max-dim", defaults.MaxDim, "Maximum preview width/height")
	flag.IntVar(&workers, "workers", defaults.Workers, "Kernels convolved concurrently (<0 uses all CPUs)")
	flag.BoolVar(&parallelRows, "parallel-rows", defaults.ParallelRows, "Split rows of each convolution across CPUs")
	flag.StringVar(&edge, "edge", string(defaults.Edge), "Edge mode: zero, clamp, mirror or wrap")
	flag.IntVar(&fitTarget, "fit-target", defaults.FitTarget, "Downsize the target to fit within N pixels (0 disables)")
	flag.StringVar(&splitPolicy, "split-policy", string(defaults.SplitPolicy), "clear-on-success or clear-on-attempt")
	flag.StringVar(&outputDir, "out", DefaultOutputDir, "Output directory for preview PNGs")
	flag.StringVar(&chartPath, "chart", "", "Write a PNG bar chart of kernel scores to this path")
	flag.BoolVar(&showProfile, "profile", false, "Print operation timings after the run")
	flag.BoolVar(&quiet, "quiet", false, "Suppress session log lines")
	flag.Parse()

	if targetPath == "" || sheetPath == "" {
		log.Fatal("error: both --target and --sheet are required")
	}

	cfg := defaults
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	// Flags given explicitly win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shape":
			cfg.Shape = shape
		case "max-dim":
			cfg.MaxDim = maxDim
		case "workers":
			cfg.Workers = workers
		case "parallel-rows":
			cfg.ParallelRows = parallelRows
		case "edge":
			cfg.Edge = images.EdgeMode(edge)
		case "fit-target":
			cfg.FitTarget = fitTarget
		case "split-policy":
			cfg.SplitPolicy = config.SplitPolicy(splitPolicy)
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	prof := profiler.New(profiler.Options{})
	opts := []explorer.Option{explorer.WithProfiler(prof)}
	if quiet {
		opts = append(opts, explorer.WithLogger(nil))
	}
	session := explorer.New(cfg, opts...)

	fmt.Printf("\n🚀 Kernel Convolution Explorer\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("⚙️  Configuration:\n")
	fmt.Printf("   🎯 Target: %s\n", targetPath)
	fmt.Printf("   🧩 Kernel sheet: %s\n", sheetPath)
	fmt.Printf("   📏 Kernel shape: %s\n", cfg.KernelShape())
	fmt.Printf("   🖼️  Preview max dim: %d\n", cfg.MaxDim)
	fmt.Printf("   🧵 Workers: %d (parallel rows: %t)\n", cfg.Workers, cfg.ParallelRows)
	fmt.Printf("   🔲 Edge mode: %s\n", cfg.Edge)
	fmt.Printf("=====================================\n\n")

	if err := loadInto(session.LoadTarget, targetPath); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := loadInto(session.LoadSheet, sheetPath); err != nil {
		log.Fatalf("❌ %v", err)
	}

	if err := session.SplitKernels(); err != nil {
		log.Fatalf("❌ %s", session.Status())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := session.RunAll(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Printf("Status: %s\n", session.Status())

	results := session.Results()
	if err := writePreviews(outputDir, results); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Printf("💾 Wrote %d previews to %s\n", len(results), outputDir)

	scores := make([]float32, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	fmt.Printf("📊 %s\n", report.Summarize(scores))
	bank := session.Bank()
	for rank, idx := range report.Rank(scores) {
		if rank == topKernels {
			break
		}
		fmt.Printf("   #%d kernel %d (row %d, col %d): %.5f\n",
			rank+1, idx, idx/bank.Cols, idx%bank.Cols, scores[idx])
	}

	if chartPath != "" {
		if err := writeChart(chartPath, session.RunID(), scores); err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Printf("📈 Score chart saved to %s\n", chartPath)
	}

	if showProfile {
		fmt.Println()
		prof.WriteReport(os.Stdout)
	}
}

// loadInto decodes the image at path and hands it to a session slot loader.
func loadInto(load func(*images.GrayscaleImage) error, path string) error {
	img, err := images.DecodeFile(path)
	if err != nil {
		return err
	}
	return load(img)
}

// writePreviews saves one grayscale PNG per kernel result.
func writePreviews(dir string, results []explorer.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	for _, r := range results {
		path := filepath.Join(dir, fmt.Sprintf("kernel_%03d.png", r.Index))
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}
		if err := r.Preview.EncodePNG(f); err != nil {
			f.Close()
			return errors.Wrapf(err, "failed to write %s", path)
		}
		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "failed to close %s", path)
		}
	}
	return nil
}

// writeChart renders the score bar chart to path.
func writeChart(path, runID string, scores []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create chart file")
	}
	defer f.Close()

	return report.WriteChart(f, fmt.Sprintf("Kernel scores (run %s)", runID), scores)
}
