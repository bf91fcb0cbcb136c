package workers

import (
	"os"
	"runtime"
	"strconv"
)

// DefaultFetchWorkers is the size of the fetch pool when FETCH_WORKERS is
// not set.
const DefaultFetchWorkers = 3

// OverrideEnv names the variable that pins the size of CPU-sized pools.
const OverrideEnv = "THUMB_WORKERS"

// Count sizes a pool as multiplier x GOMAXPROCS, at least 1 and at most
// limit (0 for no cap). GOMAXPROCS follows container CPU limits. A positive
// integer in THUMB_WORKERS replaces the computed size, still subject to
// limit.
func Count(multiplier float64, limit int) int {
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if v, err := strconv.Atoi(os.Getenv(OverrideEnv)); err == nil && v > 0 {
		n = v
	}
	return clamp(n, limit)
}

// ForCPU sizes a pool for decode-heavy work: one worker per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

func clamp(n, limit int) int {
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}
