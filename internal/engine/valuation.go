package engine

import "math"

// Weights are the per-owner valuation dimension weights. They are stored
// however the owner set them and normalized to sum to 1 before use, so
// changing one slider redistributes proportionally across the others.
type Weights struct {
	Relevance          float64
	Uniqueness         float64
	Reconstructability float64
}

// DefaultWeights returns the equal-weight triple used when an owner never
// configured valuation.
func DefaultWeights() Weights {
	return Weights{Relevance: 1, Uniqueness: 1, Reconstructability: 1}
}

// Normalize scales the weights to sum to 1. Non-finite or non-positive
// components are treated as 0; an all-zero triple falls back to equal
// weights. Already-normalized input is returned unchanged, which makes the
// operation idempotent.
func (w Weights) Normalize() Weights {
	r := sanitizeWeight(w.Relevance)
	u := sanitizeWeight(w.Uniqueness)
	c := sanitizeWeight(w.Reconstructability)

	sum := r + u + c
	if sum == 0 {
		return Weights{Relevance: 1.0 / 3, Uniqueness: 1.0 / 3, Reconstructability: 1.0 / 3}
	}
	if math.Abs(sum-1) < 1e-9 {
		return Weights{Relevance: r, Uniqueness: u, Reconstructability: c}
	}
	return Weights{Relevance: r / sum, Uniqueness: u / sum, Reconstructability: c / sum}
}

func sanitizeWeight(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// SemanticScore combines the three dimension scores under normalized
// weights. Inputs are clamped to [0,100] first, so the result is always in
// [0,100]. Pure function, safe to call concurrently.
func SemanticScore(relevance, uniqueness, reconstructability float64, w Weights) float64 {
	nw := w.Normalize()
	return clampScore(relevance)*nw.Relevance +
		clampScore(uniqueness)*nw.Uniqueness +
		clampScore(reconstructability)*nw.Reconstructability
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
