package profiler

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerOperations(t *testing.T) {
	p := New(Options{})

	for i := 0; i < 3; i++ {
		stop := p.StartOperation("convolve")
		time.Sleep(time.Millisecond)
		stop()
	}
	p.StartOperation("split")()

	ops := p.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "convolve", ops[0].Name)
	assert.Equal(t, int64(3), ops[0].Count)
	assert.GreaterOrEqual(t, ops[0].Min, time.Millisecond)
	assert.LessOrEqual(t, ops[0].Min, ops[0].Avg)
	assert.LessOrEqual(t, ops[0].Avg, ops[0].Max)
	assert.Equal(t, "split", ops[1].Name)
	assert.Equal(t, int64(1), ops[1].Count)
}

func TestProfilerMetrics(t *testing.T) {
	p := New(Options{})
	for _, v := range []float64{0.5, 0.1, 0.3} {
		p.RecordMetric("score", v)
	}

	metrics := p.Metrics()
	require.Len(t, metrics, 1)
	assert.Equal(t, "score", metrics[0].Name)
	assert.Equal(t, int64(3), metrics[0].Count)
	assert.InDelta(t, 0.3, metrics[0].Avg, 1e-12)
	assert.Equal(t, 0.1, metrics[0].Min)
	assert.Equal(t, 0.5, metrics[0].Max)
}

func TestProfilerMaxSamples(t *testing.T) {
	p := New(Options{MaxSamples: 2})
	for i := 0; i < 5; i++ {
		p.StartOperation("op")()
	}

	assert.Len(t, p.operations["op"].durations, 2)
	assert.Equal(t, int64(5), p.Operations()[0].Count, "counts cover every sample")
}

func TestProfilerNilIsNoop(t *testing.T) {
	var p *Profiler
	p.StartOperation("split")()
	p.RecordMetric("score", 1)
	assert.Nil(t, p.Operations())
	assert.Nil(t, p.Metrics())

	var buf bytes.Buffer
	p.WriteReport(&buf)
	assert.Zero(t, buf.Len())
}

func TestProfilerConcurrent(t *testing.T) {
	p := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.StartOperation("convolve")()
				p.RecordMetric("score", float64(j))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(400), p.Operations()[0].Count)
	assert.Equal(t, int64(400), p.Metrics()[0].Count)
}

func TestWriteReport(t *testing.T) {
	p := New(Options{})
	p.StartOperation("run_all")()
	p.RecordMetric("score", 0.25)

	var buf bytes.Buffer
	p.WriteReport(&buf)

	out := buf.String()
	assert.Contains(t, out, "MEMORY USAGE:")
	assert.Contains(t, out, "OPERATION TIMINGS:")
	assert.Contains(t, out, "run_all: avg=")
	assert.Contains(t, out, "CUSTOM METRICS:")
	assert.Contains(t, out, "score: avg=0.25000")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{in: 512, want: "512 B"},
		{in: 1024, want: "1.0 KB"},
		{in: 1536, want: "1.5 KB"},
		{in: 5 * 1024 * 1024, want: "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
