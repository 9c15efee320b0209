package benchmark

import (
	"fmt"
	"os"

	"github.com/nvr-ai/go-convolve/config"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Resolution represents target image dimensions for benchmarking
type Resolution struct {
	Width  int    `json:"width"  yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Name   string `json:"name"   yaml:"name"`
}

// CommonResolutions are the target sizes used by the predefined scenario sets.
var CommonResolutions = []Resolution{
	{Width: 320, Height: 240, Name: "320x240"},
	{Width: 640, Height: 480, Name: "640x480"},
	{Width: 1280, Height: 720, Name: "1280x720"},
	{Width: 1920, Height: 1080, Name: "1920x1080"},
}

// Scenario defines a specific benchmark configuration: one synthetic target
// convolved with every kernel of one sheet, Iterations times.
type Scenario struct {
	Name         string          `json:"name"          yaml:"name"`
	Resolution   Resolution      `json:"resolution"    yaml:"resolution"`
	Shape        string          `json:"shape"         yaml:"shape"`
	Edge         images.EdgeMode `json:"edge"          yaml:"edge"`
	Workers      int             `json:"workers"       yaml:"workers"`
	ParallelRows bool            `json:"parallel_rows" yaml:"parallel_rows"`
	MaxDim       int             `json:"max_dim"       yaml:"max_dim"`
	SheetCols    int             `json:"sheet_cols"    yaml:"sheet_cols"`
	SheetRows    int             `json:"sheet_rows"    yaml:"sheet_rows"`
	Iterations   int             `json:"iterations"    yaml:"iterations"`
	WarmupRuns   int             `json:"warmup_runs"   yaml:"warmup_runs"`
}

// Config maps the scenario onto an explorer configuration.
func (s Scenario) Config() config.Config {
	cfg := config.Default()
	if s.Shape != "" {
		cfg.Shape = s.Shape
	}
	if s.Edge != "" {
		cfg.Edge = s.Edge
	}
	if s.MaxDim > 0 {
		cfg.MaxDim = s.MaxDim
	}
	cfg.Workers = s.Workers
	cfg.ParallelRows = s.ParallelRows
	return cfg
}

// Validate checks the scenario before it is run.
func (s Scenario) Validate() error {
	if s.Resolution.Width <= 0 || s.Resolution.Height <= 0 {
		return errors.Errorf("scenario %s: invalid resolution %dx%d", s.Name, s.Resolution.Width, s.Resolution.Height)
	}
	if s.Iterations <= 0 {
		return errors.Errorf("scenario %s: iterations must be positive", s.Name)
	}
	if s.SheetCols <= 0 || s.SheetRows <= 0 {
		return errors.Errorf("scenario %s: sheet grid must be positive", s.Name)
	}
	return errors.Wrapf(s.Config().Validate(), "scenario %s", s.Name)
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Resolution: Resolution{Width: 640, Height: 480, Name: "640x480"},
			Shape:      kernels.ShapeThreeBySix.Key(),
			Edge:       images.ZeroEdgeMode,
			Workers:    1,
			SheetCols:  4,
			SheetRows:  4,
			Iterations: 10,
			WarmupRuns: 1,
		},
	}
}

// WithResolution sets the target resolution
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = Resolution{
		Width:  width,
		Height: height,
		Name:   fmt.Sprintf("%dx%d", width, height),
	}
	return sb
}

// WithShape sets the kernel shape
func (sb *ScenarioBuilder) WithShape(shape kernels.Shape) *ScenarioBuilder {
	sb.scenario.Shape = shape.Key()
	return sb
}

// WithEdge sets the edge mode
func (sb *ScenarioBuilder) WithEdge(edge images.EdgeMode) *ScenarioBuilder {
	sb.scenario.Edge = edge
	return sb
}

// WithWorkers sets the kernel concurrency and row parallelism
func (sb *ScenarioBuilder) WithWorkers(workers int, parallelRows bool) *ScenarioBuilder {
	sb.scenario.Workers = workers
	sb.scenario.ParallelRows = parallelRows
	return sb
}

// WithSheetGrid sets the number of kernel columns and rows in the synthetic sheet
func (sb *ScenarioBuilder) WithSheetGrid(cols, rows int) *ScenarioBuilder {
	sb.scenario.SheetCols = cols
	sb.scenario.SheetRows = rows
	return sb
}

// WithMaxDim sets the preview bound
func (sb *ScenarioBuilder) WithMaxDim(maxDim int) *ScenarioBuilder {
	sb.scenario.MaxDim = maxDim
	return sb
}

// WithIterations sets the number of measured runs
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related scenarios
type ScenarioSet struct {
	Name        string     `json:"name"        yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios"   yaml:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct{}

// GetQuickScenarios returns a small set covering both kernel shapes
func (ps *PredefinedScenarios) GetQuickScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, shape := range kernels.Shapes() {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("quick_%s_640x480", shape.Key())).
			WithShape(shape).
			WithIterations(5).
			Build())
	}

	return &ScenarioSet{
		Name:        "Quick Convolution Test",
		Description: "Both kernel shapes against a 640x480 target",
		Scenarios:   scenarios,
	}
}

// GetWorkerScenarios compares sequential, per-kernel and per-row parallelism
func (ps *PredefinedScenarios) GetWorkerScenarios(resolution Resolution) *ScenarioSet {
	variants := []struct {
		name         string
		workers      int
		parallelRows bool
	}{
		{name: "sequential", workers: 1},
		{name: "rows", workers: 1, parallelRows: true},
		{name: "kernels_4", workers: 4},
		{name: "kernels_all", workers: -1},
	}

	scenarios := make([]Scenario, 0, len(variants))
	for _, v := range variants {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("workers_%s_%s", v.name, resolution.Name)).
			WithResolution(resolution.Width, resolution.Height).
			WithWorkers(v.workers, v.parallelRows).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Worker Comparison @ %s", resolution.Name),
		Description: "Compares the concurrency settings of the convolution engine",
		Scenarios:   scenarios,
	}
}

// GetResolutionScenarios runs the default configuration at every common resolution
func (ps *PredefinedScenarios) GetResolutionScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0, len(CommonResolutions))
	for _, resolution := range CommonResolutions {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("resolution_%s", resolution.Name)).
			WithResolution(resolution.Width, resolution.Height).
			WithWorkers(-1, false).
			Build())
	}

	return &ScenarioSet{
		Name:        "Resolution Comparison",
		Description: "Compares target resolutions with all CPUs convolving kernels",
		Scenarios:   scenarios,
	}
}

// GetEdgeScenarios compares the edge sampling modes
func (ps *PredefinedScenarios) GetEdgeScenarios(resolution Resolution) *ScenarioSet {
	modes := []images.EdgeMode{images.ZeroEdgeMode, images.ClampEdgeMode, images.MirrorEdgeMode, images.WrapEdgeMode}
	scenarios := make([]Scenario, 0, len(modes))
	for _, mode := range modes {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("edge_%s_%s", mode, resolution.Name)).
			WithResolution(resolution.Width, resolution.Height).
			WithEdge(mode).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Edge Mode Comparison @ %s", resolution.Name),
		Description: "Compares the cost of remapping out-of-bounds samples",
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a YAML file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := yaml.Marshal(scenarioSet)
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a YAML (or JSON) file. Fields a
// scenario leaves out take the ScenarioBuilder defaults.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Scenarios   []yaml.Node `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}

	set := &ScenarioSet{Name: raw.Name, Description: raw.Description}
	for i := range raw.Scenarios {
		scenario := NewScenarioBuilder(fmt.Sprintf("scenario_%d", i)).Build()
		if err := raw.Scenarios[i].Decode(&scenario); err != nil {
			return nil, errors.Wrapf(err, "failed to decode scenario %d", i)
		}
		// The name always follows the decoded dimensions.
		scenario.Resolution.Name = fmt.Sprintf("%dx%d", scenario.Resolution.Width, scenario.Resolution.Height)
		set.Scenarios = append(set.Scenarios, scenario)
	}

	return set, nil
}
