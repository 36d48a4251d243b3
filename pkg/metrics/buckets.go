package metrics

import "github.com/prometheus/client_golang/prometheus"

// Common bucket presets shared across components.
var (
	// DurationBuckets covers sub-millisecond handler work up to long resumes.
	DurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60}

	// SizeBuckets covers payload sizes from tiny configs to the 10k cap and beyond.
	SizeBuckets = prometheus.ExponentialBuckets(64, 4, 8)

	// CountBuckets covers batch sizes (worker submissions per call).
	CountBuckets = []float64{1, 2, 3, 5, 8, 13, 21, 34, 55}
)
