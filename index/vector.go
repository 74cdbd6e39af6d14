package index

import "math"

// NormalizeVector returns v scaled to unit L2 norm.
// A zero vector is returned as a zero vector of the same length.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	if sumSquares == 0 {
		return result
	}

	inv := 1 / math.Sqrt(sumSquares)
	for i, val := range v {
		result[i] = float32(float64(val) * inv)
	}
	return result
}
