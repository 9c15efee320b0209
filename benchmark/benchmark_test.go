package benchmark

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTinyScenario(name string) Scenario {
	return NewScenarioBuilder(name).
		WithResolution(32, 24).
		WithSheetGrid(2, 2).
		WithIterations(2).
		WithWarmupRuns(1).
		Build()
}

func TestScenarioBuilder(t *testing.T) {
	scenario := NewScenarioBuilder("test_scenario").
		WithResolution(416, 416).
		WithShape(kernels.ShapeSixByThree).
		WithEdge(images.MirrorEdgeMode).
		WithWorkers(4, true).
		WithSheetGrid(3, 2).
		WithMaxDim(128).
		WithIterations(50).
		WithWarmupRuns(5).
		Build()

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, Resolution{Width: 416, Height: 416, Name: "416x416"}, scenario.Resolution)
	assert.Equal(t, "6x3", scenario.Shape)
	assert.Equal(t, images.MirrorEdgeMode, scenario.Edge)
	assert.Equal(t, 4, scenario.Workers)
	assert.True(t, scenario.ParallelRows)
	assert.Equal(t, 3, scenario.SheetCols)
	assert.Equal(t, 2, scenario.SheetRows)
	assert.Equal(t, 50, scenario.Iterations)
	assert.Equal(t, 5, scenario.WarmupRuns)

	cfg := scenario.Config()
	assert.Equal(t, kernels.ShapeSixByThree, cfg.KernelShape())
	assert.Equal(t, 128, cfg.MaxDim)
	assert.Equal(t, 4, cfg.Workers)
	require.NoError(t, scenario.Validate())
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{name: "no iterations", mutate: func(s *Scenario) { s.Iterations = 0 }},
		{name: "no resolution", mutate: func(s *Scenario) { s.Resolution = Resolution{} }},
		{name: "empty grid", mutate: func(s *Scenario) { s.SheetCols = 0 }},
		{name: "bad shape", mutate: func(s *Scenario) { s.Shape = "5x5" }},
		{name: "bad edge", mutate: func(s *Scenario) { s.Edge = "reflect" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := getTinyScenario(tt.name)
			tt.mutate(&scenario)
			assert.Error(t, scenario.Validate())
		})
	}
}

func TestAddScenario(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{})
	suite.AddScenario(getTinyScenario("a"))
	suite.AddScenario(getTinyScenario("b"))

	scenarios := suite.Scenarios()
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)
}

func TestRunScenario(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{})

	metrics, err := suite.RunScenario(context.Background(), getTinyScenario("tiny"))
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.KernelCount)
	assert.NotEmpty(t, metrics.RunID)
	assert.Greater(t, metrics.MapsPerSecond, 0.0)
	assert.InEpsilon(t, metrics.RunsPerSecond*4, metrics.MapsPerSecond, 1e-9)
	assert.Zero(t, metrics.ErrorRate)
	assert.Greater(t, metrics.MeanScore, 0.0)
	assert.Positive(t, metrics.ConvolveDuration)
	assert.Positive(t, metrics.CPUStats.GOMAXPROCS)
}

func TestRunScenarioWithSheet(t *testing.T) {
	sheet := SyntheticImage("sheet", 6, 12, 3)
	suite := NewSuite(NewSuiteArgs{Sheet: sheet})

	metrics, err := suite.RunScenario(context.Background(), getTinyScenario("sheet"))
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.KernelCount)

	bad := getTinyScenario("mismatch")
	bad.Shape = kernels.ShapeSixByThree.Key()
	_, err = NewSuite(NewSuiteArgs{Sheet: SyntheticImage("sheet", 3, 6, 4)}).RunScenario(context.Background(), bad)
	var mismatch *kernels.DimensionMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSuite(NewSuiteArgs{}).RunScenario(ctx, getTinyScenario("cancelled"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAllScenariosSavesResults(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	suite := NewSuite(NewSuiteArgs{OutputPath: dir, Logger: log.New(&logs, "", 0)})

	suite.AddScenario(getTinyScenario("ok"))
	broken := getTinyScenario("broken")
	broken.Iterations = 0
	suite.AddScenario(broken)

	require.NoError(t, suite.RunAllScenarios(context.Background()))

	results := suite.GetResults()
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Scenario.Name)
	assert.Contains(t, logs.String(), "Scenario broken failed")

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "benchmark_results_*.json"))
	require.NoError(t, err)
	require.Len(t, jsonFiles, 1)

	csvFiles, err := filepath.Glob(filepath.Join(dir, "benchmark_summary_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvFiles, 1)
	data, err := os.ReadFile(csvFiles[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Scenario,Resolution,Shape"))
	assert.True(t, strings.HasPrefix(lines[1], "ok,32x24,3x6,zero,1,false,4,"))
}

func TestPredefinedScenarios(t *testing.T) {
	ps := &PredefinedScenarios{}
	res := Resolution{Width: 320, Height: 240, Name: "320x240"}

	sets := []*ScenarioSet{
		ps.GetQuickScenarios(),
		ps.GetWorkerScenarios(res),
		ps.GetResolutionScenarios(),
		ps.GetEdgeScenarios(res),
	}
	for _, set := range sets {
		t.Run(set.Name, func(t *testing.T) {
			require.NotEmpty(t, set.Scenarios)
			for _, s := range set.Scenarios {
				assert.NoError(t, s.Validate(), s.Name)
			}
		})
	}

	assert.Len(t, ps.GetQuickScenarios().Scenarios, len(kernels.Shapes()))
	assert.Len(t, ps.GetResolutionScenarios().Scenarios, len(CommonResolutions))
}

func TestScenarioSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	set := (&PredefinedScenarios{}).GetWorkerScenarios(Resolution{Width: 64, Height: 48, Name: "64x48"})

	require.NoError(t, SaveScenarioSet(set, path))
	loaded, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)
}

func TestLoadScenarioSetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	body := `{"name": "custom", "scenarios": [{"name": "wide", "resolution": {"width": 100, "height": 20}, "workers": 2}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	set, err := LoadScenarioSet(path)
	require.NoError(t, err)
	require.Len(t, set.Scenarios, 1)

	s := set.Scenarios[0]
	assert.Equal(t, "wide", s.Name)
	assert.Equal(t, Resolution{Width: 100, Height: 20, Name: "100x20"}, s.Resolution)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "3x6", s.Shape, "missing fields keep builder defaults")
	assert.Equal(t, 10, s.Iterations)
	require.NoError(t, s.Validate())

	_, err = LoadScenarioSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
