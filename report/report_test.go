package report

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float32{1, 3, 2})

	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 1, s.ArgMax)
	assert.Contains(t, s.String(), "best=1")
}

func TestSummarizeEdgeCases(t *testing.T) {
	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, -1, empty.ArgMax)

	single := Summarize([]float32{0.5})
	assert.Equal(t, 1, single.Count)
	assert.Equal(t, 0.0, single.StdDev)
	assert.Equal(t, 0, single.ArgMax)
}

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   []int
	}{
		{name: "descending", scores: []float32{1, 3, 2}, want: []int{1, 2, 0}},
		{name: "ties keep bank order", scores: []float32{2, 5, 2, 5}, want: []int{1, 3, 0, 2}},
		{name: "empty", scores: nil, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.scores))
		})
	}
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, "Kernel scores", []float32{0.1, 0.4, 0.2, 0.3}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestWriteChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteChart(&buf, "empty", nil))
	assert.Zero(t, buf.Len())
}
