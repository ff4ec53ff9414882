package insight

import (
	"math"
	"sort"

	"github.com/sightline-ai/sightline/internal/domain"
)

// MetricValues pulls the raw values out of a metric list.
func MetricValues(metrics []domain.Metric) []float64 {
	if len(metrics) == 0 {
		return nil
	}
	out := make([]float64, len(metrics))
	for i := range metrics {
		out[i] = metrics[i].Value
	}
	return out
}

// ComputeStats summarizes a value set with min/max/mean/median/stddev.
// The boolean is false when there are no values; the zero stats must not be
// mistaken for a real all-zero distribution.
func ComputeStats(values []float64) (domain.MetricStats, bool) {
	if len(values) == 0 {
		return domain.MetricStats{}, false
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	return domain.MetricStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: median(sorted),
		StdDev: math.Sqrt(variance),
		Range:  sorted[len(sorted)-1] - sorted[0],
	}, true
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
