// Package benchmark - Functionality for running convolution throughput benchmarks.
package benchmark

import "time"

// PerformanceMetrics captures detailed performance data for one scenario
type PerformanceMetrics struct {
	Scenario         Scenario      `json:"scenario"`
	RunID            string        `json:"run_id"`
	Timestamp        time.Time     `json:"timestamp"`
	KernelCount      int           `json:"kernel_count"`
	TotalDuration    time.Duration `json:"total_duration"`
	SplitDuration    time.Duration `json:"split_duration"`
	ConvolveDuration time.Duration `json:"convolve_duration"`
	PreviewDuration  time.Duration `json:"preview_duration"`
	RunsPerSecond    float64       `json:"runs_per_second"`
	MapsPerSecond    float64       `json:"maps_per_second"`
	MeanScore        float64       `json:"mean_score"`
	MemoryStats      MemoryMetrics `json:"memory_stats"`
	CPUStats         CPUMetrics    `json:"cpu_stats"`
	ErrorRate        float64       `json:"error_rate"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// CPUMetrics captures CPU usage statistics
type CPUMetrics struct {
	NumCPU     int `json:"num_cpu"`
	GOMAXPROCS int `json:"gomaxprocs"`
}
