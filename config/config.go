// Package config - Explorer configuration loaded from YAML.
package config

import (
	"os"

	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/nvr-ai/go-convolve/preview"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SplitPolicy decides what happens to an existing kernel bank when a split fails.
type SplitPolicy string

const (
	// SplitPolicyClearOnSuccess keeps the previous bank and results when a split fails.
	SplitPolicyClearOnSuccess SplitPolicy = "clear-on-success"
	// SplitPolicyClearOnAttempt drops the previous bank and results before splitting.
	SplitPolicyClearOnAttempt SplitPolicy = "clear-on-attempt"
)

// Config holds every tunable of the explorer pipeline.
type Config struct {
	// Shape is the kernel shape key ("3x6" or "6x3").
	Shape string `json:"shape" yaml:"shape"`
	// MaxDim bounds the preview width and height.
	MaxDim int `json:"max_dim" yaml:"max_dim"`
	// Workers is the number of kernels convolved concurrently (<=1 sequential, <0 NumCPU).
	Workers int `json:"workers" yaml:"workers"`
	// ParallelRows splits the rows of each single convolution across goroutines.
	ParallelRows bool `json:"parallel_rows" yaml:"parallel_rows"`
	// Edge is the out-of-bounds sampling mode ("zero", "clamp", "mirror", "wrap").
	Edge images.EdgeMode `json:"edge" yaml:"edge"`
	// SplitPolicy controls what a failed split does to existing kernels.
	SplitPolicy SplitPolicy `json:"split_policy" yaml:"split_policy"`
	// FitTarget downsizes the target so neither side exceeds it (0 disables).
	FitTarget int `json:"fit_target" yaml:"fit_target"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Shape:       kernels.ShapeThreeBySix.Key(),
		MaxDim:      preview.DefaultMaxDim,
		Workers:     1,
		Edge:        images.ZeroEdgeMode,
		SplitPolicy: SplitPolicyClearOnSuccess,
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values.
//
// Arguments:
// - path: Path to the YAML configuration file.
//
// Returns:
// - The validated configuration.
// - An error if the file cannot be read, parsed or validated.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks that every field holds a supported value.
func (c Config) Validate() error {
	if _, err := kernels.ParseShape(c.Shape); err != nil {
		return err
	}
	if c.MaxDim <= 0 {
		return errors.Errorf("max_dim must be positive, got %d", c.MaxDim)
	}
	if !c.Edge.Valid() {
		return errors.Errorf("unknown edge mode %q", c.Edge)
	}
	switch c.SplitPolicy {
	case SplitPolicyClearOnSuccess, SplitPolicyClearOnAttempt:
	default:
		return errors.Errorf("unknown split policy %q", c.SplitPolicy)
	}
	if c.FitTarget < 0 {
		return errors.Errorf("fit_target must not be negative, got %d", c.FitTarget)
	}
	return nil
}

// KernelShape resolves the configured shape. Call Validate first.
func (c Config) KernelShape() kernels.Shape {
	shape, err := kernels.ParseShape(c.Shape)
	if err != nil {
		return kernels.ShapeThreeBySix
	}
	return shape
}

// ConvolveOptions maps the configuration onto kernel options.
func (c Config) ConvolveOptions() kernels.Options {
	return kernels.Options{
		Edge:         c.Edge,
		ParallelRows: c.ParallelRows,
		Workers:      c.Workers,
	}
}
