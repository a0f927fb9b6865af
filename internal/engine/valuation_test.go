package engine

import (
	"math"
	"testing"
)

func TestNormalizeWeights(t *testing.T) {
	w := Weights{Relevance: 2, Uniqueness: 1, Reconstructability: 1}.Normalize()
	if w.Relevance != 0.5 || w.Uniqueness != 0.25 || w.Reconstructability != 0.25 {
		t.Errorf("normalized = %+v, want 0.5/0.25/0.25", w)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	w := Weights{Relevance: 0.5, Uniqueness: 0.3, Reconstructability: 0.2}
	once := w.Normalize()
	twice := once.Normalize()
	if once != twice {
		t.Errorf("normalize not idempotent: %+v then %+v", once, twice)
	}
	if once != w {
		t.Errorf("already-normalized input changed: %+v -> %+v", w, once)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	tests := []struct {
		name string
		in   Weights
	}{
		{"all zero", Weights{}},
		{"negative", Weights{Relevance: -1, Uniqueness: -2, Reconstructability: -3}},
		{"nan", Weights{Relevance: math.NaN(), Uniqueness: math.NaN(), Reconstructability: math.NaN()}},
		{"inf", Weights{Relevance: math.Inf(1), Uniqueness: math.Inf(1), Reconstructability: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			want := 1.0 / 3
			if got.Relevance != want || got.Uniqueness != want || got.Reconstructability != want {
				t.Errorf("Normalize(%+v) = %+v, want equal thirds", tt.in, got)
			}
		})
	}
}

// Raising one weight redistributes proportionally: the other two shrink but
// keep their ratio to each other.
func TestNormalizeRedistributes(t *testing.T) {
	w := Weights{Relevance: 3, Uniqueness: 1, Reconstructability: 1}.Normalize()
	if w.Uniqueness != w.Reconstructability {
		t.Errorf("equal inputs diverged: %v vs %v", w.Uniqueness, w.Reconstructability)
	}
	sum := w.Relevance + w.Uniqueness + w.Reconstructability
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}

func TestSemanticScore(t *testing.T) {
	tests := []struct {
		name             string
		rel, uniq, recon float64
		w                Weights
		want             float64
	}{
		{"equal weights average", 90, 60, 30, DefaultWeights(), 60},
		{"single weight", 90, 60, 30, Weights{Relevance: 1}, 90},
		{"all max", 100, 100, 100, DefaultWeights(), 100},
		{"all min", 0, 0, 0, DefaultWeights(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SemanticScore(tt.rel, tt.uniq, tt.recon, tt.w)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SemanticScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSemanticScoreClampsInputs(t *testing.T) {
	got := SemanticScore(150, -20, math.NaN(), DefaultWeights())
	want := 100.0 / 3 // 100 + 0 + 0 over three equal weights
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("clamped score = %v, want %v", got, want)
	}
	if got < 0 || got > 100 {
		t.Errorf("score %v outside [0,100]", got)
	}
}

func TestSemanticScoreRepeatable(t *testing.T) {
	w := Weights{Relevance: 2, Uniqueness: 5, Reconstructability: 3}
	a := SemanticScore(81, 42, 67, w)
	b := SemanticScore(81, 42, 67, w)
	if a != b {
		t.Errorf("identical inputs gave %v then %v", a, b)
	}
}
