// Package report summarizes kernel scores across a bank and renders them as a chart.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Summary describes the score distribution of one convolution run.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// ArgMax is the kernel index with the highest score, -1 when Count is 0.
	ArgMax int
}

func (s Summary) String() string {
	return fmt.Sprintf("kernels=%d mean=%.5f std=%.5f min=%.5f max=%.5f best=%d",
		s.Count, s.Mean, s.StdDev, s.Min, s.Max, s.ArgMax)
}

// Summarize computes the distribution statistics of scores.
func Summarize(scores []float32) Summary {
	if len(scores) == 0 {
		return Summary{ArgMax: -1}
	}

	values := toFloat64(scores)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}

	return Summary{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		ArgMax: floats.MaxIdx(values),
	}
}

// Rank returns kernel indices ordered by descending score. Ties keep bank order.
func Rank(scores []float32) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

// WriteChart renders a PNG bar chart of scores indexed by kernel.
//
// Arguments:
// - w: Destination for the encoded PNG.
// - title: Chart title.
// - scores: One score per kernel, in bank order.
//
// Returns:
// - An error if there is nothing to plot or rendering fails.
func WriteChart(w io.Writer, title string, scores []float32) error {
	if len(scores) == 0 {
		return errors.New("no scores to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Kernel index"
	p.Y.Label.Text = "Mean abs response"

	bars, err := plotter.NewBarChart(plotter.Values(toFloat64(scores)), vg.Points(6))
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return errors.Wrap(err, "render score chart")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write score chart")
	}
	return nil
}

func toFloat64(scores []float32) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = float64(s)
	}
	return out
}
