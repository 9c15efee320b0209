package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/nvr-ai/go-convolve/config"
	"github.com/nvr-ai/go-convolve/explorer"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/profiler"
	"github.com/nvr-ai/go-convolve/report"
	"github.com/pkg/errors"
)

// Suite manages and executes benchmark scenarios
type Suite struct {
	scenarios []Scenario
	sheet     *images.GrayscaleImage
	outputDir string
	logger    *log.Logger
	mu        sync.RWMutex
	results   []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// OutputPath is the directory results are saved to.
	OutputPath string `json:"outputPath" yaml:"outputPath"`
	// Sheet replaces the synthetic kernel sheet. Its size must divide by every
	// scenario's kernel shape.
	Sheet *images.GrayscaleImage `json:"-" yaml:"-"`
	// Logger receives progress lines. Nil discards them.
	Logger *log.Logger `json:"-" yaml:"-"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	logger := args.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Suite{
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
		sheet:     args.Sheet,
		outputDir: args.OutputPath,
		logger:    logger,
	}
}

// AddScenario adds a scenario to the suite
func (s *Suite) AddScenario(scenario Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios = append(s.scenarios, scenario)
}

// Scenarios returns the configured scenarios in insertion order
func (s *Suite) Scenarios() []Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Scenario, len(s.scenarios))
	copy(out, s.scenarios)
	return out
}

// SyntheticImage returns a deterministic pseudo-random grayscale image.
func SyntheticImage(name string, width, height int, seed int64) *images.GrayscaleImage {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]uint8, width*height)
	for i := range pix {
		pix[i] = uint8(rng.Intn(256))
	}
	return &images.GrayscaleImage{Name: name, Width: width, Height: height, Pix: pix}
}

// RunScenario executes a single scenario: warmup runs on a throwaway session,
// then Iterations measured RunAll calls on a profiled one.
func (s *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	cfg := scenario.Config()
	shape := cfg.KernelShape()

	target := SyntheticImage("target", scenario.Resolution.Width, scenario.Resolution.Height, 1)
	sheet := s.sheet
	if sheet == nil {
		sheet = SyntheticImage("sheet", shape.Width*scenario.SheetCols, shape.Height*scenario.SheetRows, 2)
	}

	warm, err := prepareSession(cfg, target, sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	for i := 0; i < scenario.WarmupRuns; i++ {
		if err := warm.RunAll(ctx); err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	prof := profiler.New(profiler.Options{})
	session, err := prepareSession(cfg, target, sheet, explorer.WithProfiler(prof))
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}

	metrics := &PerformanceMetrics{
		Scenario:    scenario,
		Timestamp:   time.Now(),
		KernelCount: session.Bank().Len(),
	}

	// Capture initial memory stats
	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	startTime := time.Now()
	failures := 0
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := session.RunAll(ctx); err != nil {
			failures++
		}
	}
	totalDuration := time.Since(startTime)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	completed := scenario.Iterations - failures
	metrics.RunID = session.RunID()
	metrics.TotalDuration = totalDuration
	metrics.RunsPerSecond = float64(completed) / totalDuration.Seconds()
	metrics.MapsPerSecond = float64(completed*metrics.KernelCount) / totalDuration.Seconds()
	metrics.ErrorRate = float64(failures) / float64(scenario.Iterations)

	for _, op := range prof.Operations() {
		switch op.Name {
		case "split":
			metrics.SplitDuration = op.Total
		case "run_all":
			metrics.ConvolveDuration = op.Total
		case "preview":
			metrics.PreviewDuration = op.Total
		}
	}

	results := session.Results()
	scores := make([]float32, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	metrics.MeanScore = report.Summarize(scores).Mean

	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}
	metrics.CPUStats = CPUMetrics{
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	return metrics, nil
}

func prepareSession(cfg config.Config, target, sheet *images.GrayscaleImage, opts ...explorer.Option) (*explorer.Session, error) {
	session := explorer.New(cfg, append([]explorer.Option{explorer.WithLogger(nil)}, opts...)...)
	if err := session.LoadTarget(target); err != nil {
		return nil, err
	}
	if err := session.LoadSheet(sheet); err != nil {
		return nil, err
	}
	if err := session.SplitKernels(); err != nil {
		return nil, err
	}
	return session, nil
}

// RunAllScenarios executes every configured scenario. A failing scenario is
// logged and skipped; cancellation of ctx stops the suite. Results are saved
// when an output directory is configured.
func (s *Suite) RunAllScenarios(ctx context.Context) error {
	for _, scenario := range s.Scenarios() {
		metrics, err := s.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Printf("❌ Scenario %s failed: %v", scenario.Name, err)
			continue
		}

		s.mu.Lock()
		s.results = append(s.results, *metrics)
		s.mu.Unlock()

		s.logger.Printf("✅ Scenario %s completed: %.2f maps/s (%d kernels)",
			scenario.Name, metrics.MapsPerSecond, metrics.KernelCount)
	}

	if s.outputDir == "" {
		return nil
	}
	return s.SaveResults()
}

// SaveResults persists benchmark results to the output directory as JSON plus
// a CSV summary.
func (s *Suite) SaveResults() error {
	results := s.GetResults()

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(s.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(s.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return errors.Wrap(err, "failed to save summary CSV")
	}

	s.logger.Printf("💾 Results saved to: %s", resultsFile)
	s.logger.Printf("💾 Summary saved to: %s", summaryFile)
	return nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"Scenario", "Resolution", "Shape", "Edge", "Workers", "Parallel_Rows", "Kernels",
		"Maps_Per_Second", "Total_Duration_ms", "Total_Alloc_MB", "Mean_Score", "Error_Rate",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Scenario.Name,
			r.Scenario.Resolution.Name,
			r.Scenario.Shape,
			string(r.Scenario.Edge),
			strconv.Itoa(r.Scenario.Workers),
			strconv.FormatBool(r.Scenario.ParallelRows),
			strconv.Itoa(r.KernelCount),
			strconv.FormatFloat(r.MapsPerSecond, 'f', 2, 64),
			strconv.FormatFloat(float64(r.TotalDuration.Nanoseconds())/1e6, 'f', 2, 64),
			strconv.FormatFloat(float64(r.MemoryStats.TotalAllocBytes)/(1024*1024), 'f', 2, 64),
			strconv.FormatFloat(r.MeanScore, 'f', 5, 64),
			strconv.FormatFloat(r.ErrorRate, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// GetResults returns all benchmark results
func (s *Suite) GetResults() []PerformanceMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]PerformanceMetrics, len(s.results))
	copy(results, s.results)
	return results
}
