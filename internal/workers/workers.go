// Package workers sizes worker pools from GOMAXPROCS, which follows
// container CPU limits, instead of runtime.NumCPU.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "HG_WORKERS"

// Count returns multiplier workers per available CPU, at least 1 and at most
// limit (0 means no limit). A positive HG_WORKERS value replaces the
// computed count but still respects limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capped(count, limit)
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capped(workers, limit)
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns the worker count for CPU-bound tasks such as preview encoding.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks such as storage listings.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
