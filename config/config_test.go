package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "explorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, kernels.ShapeThreeBySix, cfg.KernelShape())
	assert.Equal(t, 256, cfg.MaxDim)
	assert.Equal(t, SplitPolicyClearOnSuccess, cfg.SplitPolicy)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
shape: "6 x 3"
max_dim: 128
workers: -1
parallel_rows: true
edge: mirror
split_policy: clear-on-attempt
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, kernels.ShapeSixByThree, cfg.KernelShape())
	assert.Equal(t, 128, cfg.MaxDim)
	assert.Equal(t, -1, cfg.Workers)
	assert.True(t, cfg.ParallelRows)
	assert.Equal(t, images.MirrorEdgeMode, cfg.Edge)
	assert.Equal(t, SplitPolicyClearOnAttempt, cfg.SplitPolicy)
	assert.Equal(t, 0, cfg.FitTarget, "missing keys keep their defaults")

	opt := cfg.ConvolveOptions()
	assert.Equal(t, images.MirrorEdgeMode, opt.Edge)
	assert.True(t, opt.ParallelRows)
	assert.Equal(t, -1, opt.Workers)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "fit_target: 512\n"))
	require.NoError(t, err)

	want := Default()
	want.FitTarget = 512
	assert.Equal(t, want, cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "shape: [unterminated\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "shape: 4x4\n"))
	assert.ErrorContains(t, err, "unknown kernel shape")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad shape", mutate: func(c *Config) { c.Shape = "3x3" }},
		{name: "zero max dim", mutate: func(c *Config) { c.MaxDim = 0 }},
		{name: "unknown edge", mutate: func(c *Config) { c.Edge = "reflect" }},
		{name: "unknown policy", mutate: func(c *Config) { c.SplitPolicy = "never" }},
		{name: "negative fit", mutate: func(c *Config) { c.FitTarget = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestKernelShapeFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Shape = "bogus"
	assert.Equal(t, kernels.ShapeThreeBySix, cfg.KernelShape())
}
