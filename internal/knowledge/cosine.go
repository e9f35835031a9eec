package knowledge

import "math"

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||). Vectors of
// different lengths score 0, and a zero-norm operand also scores 0 so the
// result is never NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
