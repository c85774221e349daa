package agent

import (
	"math"

	"vgcbench/searcher"
)

// adjustTemperature turns visit counts into probabilities, sharpened below
// temperature 1 and flattened above it.
func adjustTemperature(children []searcher.Child, temperature float64) []float64 {
	exponent := 1.0 / temperature
	sum := 0.0
	probs := make([]float64, len(children))
	for i, c := range children {
		probs[i] = math.Pow(float64(c.Visits), exponent)
		sum += probs[i]
	}
	if sum == 0 {
		return probs
	}
	// Normalize
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// sample picks the child whose cumulative probability first exceeds u.
func sample(children []searcher.Child, probs []float64, u float64) searcher.Child {
	cumulative := 0.0
	for i, p := range probs {
		cumulative += p
		if u < cumulative {
			return children[i]
		}
	}
	return children[len(children)-1] // Fallback in case of rounding errors
}
