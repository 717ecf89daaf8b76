package engine

import "math"

// ceilEpsilon keeps float noise such as 6.000000000001 from rounding up.
const ceilEpsilon = 1e-9

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// ceilUnits rounds a non-negative quantity up to whole units.
func ceilUnits(v float64) int64 {
	return int64(math.Ceil(math.Max(0, v-ceilEpsilon)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
