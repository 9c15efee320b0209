package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-convolve/benchmark"
	"github.com/nvr-ai/go-convolve/images"
)

func main() {
	var (
		scenarioFile = flag.String("scenarios", "", "Path to a YAML or JSON scenario file")
		outputDir    = flag.String("output", "./benchmark_results", "Output directory for results")
		sheetPath    = flag.String("sheet", "", "Kernel sheet image (synthetic sheet when empty)")
		quick        = flag.Bool("quick", false, "Run quick benchmark scenarios")
		workers      = flag.Bool("workers", false, "Compare concurrency settings")
		resolutions  = flag.Bool("resolutions", false, "Compare target resolutions")
		edges        = flag.Bool("edges", false, "Compare edge modes")
		timeout      = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	args := benchmark.NewSuiteArgs{
		OutputPath: *outputDir,
		Logger:     log.Default(),
	}
	if *sheetPath != "" {
		sheet, err := images.DecodeFile(*sheetPath)
		if err != nil {
			log.Fatalf("❌ Failed to load sheet: %v", err)
		}
		args.Sheet = sheet
	}
	suite := benchmark.NewSuite(args)

	predefined := &benchmark.PredefinedScenarios{}
	compare := benchmark.Resolution{Width: 640, Height: 480, Name: "640x480"}

	add := func(set *benchmark.ScenarioSet) {
		for _, scenario := range set.Scenarios {
			suite.AddScenario(scenario)
		}
		fmt.Printf("📋 Added %d scenarios: %s\n", len(set.Scenarios), set.Name)
	}

	if *scenarioFile != "" {
		set, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			log.Fatalf("❌ Failed to load scenario file: %v", err)
		}
		add(set)
	} else {
		if *quick {
			add(predefined.GetQuickScenarios())
		}
		if *workers {
			add(predefined.GetWorkerScenarios(compare))
		}
		if *resolutions {
			add(predefined.GetResolutionScenarios())
		}
		if *edges {
			add(predefined.GetEdgeScenarios(compare))
		}

		// If no specific scenarios requested, use quick by default
		if !*quick && !*workers && !*resolutions && !*edges {
			add(predefined.GetQuickScenarios())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("🚀 Starting benchmark execution...")
	start := time.Now()

	if err := suite.RunAllScenarios(ctx); err != nil {
		log.Fatalf("❌ Benchmark execution failed: %v", err)
	}

	fmt.Printf("Benchmark completed in %v\n", time.Since(start).Truncate(time.Millisecond))

	results := suite.GetResults()
	fmt.Printf("\n=== BENCHMARK RESULTS SUMMARY ===\n")
	fmt.Printf("Total scenarios: %d\n", len(results))

	var bestRate float64
	var bestScenario string
	for _, result := range results {
		if result.MapsPerSecond > bestRate {
			bestRate = result.MapsPerSecond
			bestScenario = result.Scenario.Name
		}
		fmt.Printf("  %s: %.2f maps/s (%d kernels, %.2f MB allocated)\n",
			result.Scenario.Name,
			result.MapsPerSecond,
			result.KernelCount,
			float64(result.MemoryStats.TotalAllocBytes)/(1024*1024))
	}

	if bestScenario != "" {
		fmt.Printf("\n🏆 Best performing scenario: %s (%.2f maps/s)\n", bestScenario, bestRate)
	}
}

func init() {
	flag.Usage = func() {
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", name)
		fmt.Fprintf(os.Stderr, "Throughput benchmark for the kernel convolution pipeline.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -quick\n", name)
		fmt.Fprintf(os.Stderr, "  %s -workers -edges -sheet ./sheet.png\n", name)
		fmt.Fprintf(os.Stderr, "  %s -scenarios ./scenarios.yaml -output ./results\n", name)
	}
}
