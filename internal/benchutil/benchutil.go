// Package benchutil computes latency percentiles for the endpoint benchmark
// tests and reports them as JSON.
package benchutil

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"
)

// OutputDirEnv names the directory results are written to, when set.
const OutputDirEnv = "GITVIZ_BENCH_OUTPUT_DIR"

// Result holds latency percentiles for one measured scenario.
type Result struct {
	Name       string  `json:"name"`
	Variant    string  `json:"variant"`
	Iterations int     `json:"iterations"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	MaxMs      float64 `json:"max_ms"`
	MeanMs     float64 `json:"mean_ms"`
	MinMs      float64 `json:"min_ms"`
	StddevMs   float64 `json:"stddev_ms"`
	GCPauses   uint32  `json:"gc_pauses"`
	GCPauseUs  float64 `json:"gc_pause_total_us"`
	Timestamp  string  `json:"timestamp"`
}

// Compute calculates percentiles and GC stats from raw durations. It returns
// a zero Result for an empty sample.
func Compute(name, variant string, durations []time.Duration, gcBefore, gcAfter *runtime.MemStats) Result {
	n := len(durations)
	if n == 0 {
		return Result{Name: name, Variant: variant}
	}
	ms := make([]float64, n)
	var sum float64
	for i, d := range durations {
		ms[i] = float64(d.Microseconds()) / 1000.0
		sum += ms[i]
	}
	sort.Float64s(ms)

	mean := sum / float64(n)
	var variance float64
	for _, v := range ms {
		diff := v - mean
		variance += diff * diff
	}

	return Result{
		Name:       name,
		Variant:    variant,
		Iterations: n,
		P50Ms:      ms[n*50/100],
		P95Ms:      ms[n*95/100],
		P99Ms:      ms[n*99/100],
		MaxMs:      ms[n-1],
		MeanMs:     mean,
		MinMs:      ms[0],
		StddevMs:   math.Sqrt(variance / float64(n)),
		GCPauses:   gcAfter.NumGC - gcBefore.NumGC,
		GCPauseUs:  float64(gcAfter.PauseTotalNs-gcBefore.PauseTotalNs) / 1000.0,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Measure runs fn iterations times after warmup discarded runs and returns
// the computed Result.
func Measure(name, variant string, warmup, iterations int, fn func()) Result {
	for i := 0; i < warmup; i++ {
		fn()
	}

	var gcBefore, gcAfter runtime.MemStats
	runtime.ReadMemStats(&gcBefore)
	durations := make([]time.Duration, 0, iterations)
	for i := 0; i < iterations; i++ {
		start := time.Now()
		fn()
		durations = append(durations, time.Since(start))
	}
	runtime.ReadMemStats(&gcAfter)

	return Compute(name, variant, durations, &gcBefore, &gcAfter)
}

// Report logs result as JSON and writes it to $GITVIZ_BENCH_OUTPUT_DIR if set.
func Report(t *testing.T, result Result) {
	t.Helper()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	t.Logf("BENCH_RESULT_JSON: %s", string(data))

	if dir := os.Getenv(OutputDirEnv); dir != "" {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", result.Name, result.Variant))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Errorf("failed to write result to %s: %v", path, err)
		} else {
			t.Logf("Result written to %s", path)
		}
	}
}
