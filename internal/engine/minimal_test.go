package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFallbackSummaryShortContent(t *testing.T) {
	in := "A short archival note."
	if got := FallbackSummary(in); got != in {
		t.Errorf("short content changed: %q", got)
	}
}

func TestFallbackSummaryTruncates(t *testing.T) {
	in := strings.Repeat("lexicon entropy archive preservation cycle ", 60)
	got := FallbackSummary(in)

	if len(got) > fallbackSummaryMax+3 {
		t.Errorf("summary length %d over cap", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated summary missing ellipsis: %q", got[len(got)-10:])
	}
	// Cut lands on a word boundary, not mid-word.
	trimmed := strings.TrimSuffix(got, "...")
	words := strings.Fields(trimmed)
	last := words[len(words)-1]
	if last != "lexicon" && last != "entropy" && last != "archive" && last != "preservation" && last != "cycle" {
		t.Errorf("cut mid-word: %q", last)
	}
}

func TestFallbackMinimal(t *testing.T) {
	content := "Radio telemetry from the northern relay, volume four. " +
		strings.Repeat("telemetry relay northern ", 30)
	out, err := FallbackMinimal("Relay telemetry", content, "telemetry, relay")
	if err != nil {
		t.Fatalf("FallbackMinimal: %v", err)
	}

	var got struct {
		Title    string   `json:"title"`
		Keywords []string `json:"keywords"`
		OneLiner string   `json:"one_liner"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("not valid JSON: %v", err)
	}
	if got.Title != "Relay telemetry" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Keywords) == 0 || len(got.Keywords) > fallbackKeywordMax {
		t.Fatalf("keywords = %v", got.Keywords)
	}
	if got.Keywords[0] != "telemetry" && got.Keywords[0] != "relay" {
		t.Errorf("lead keyword = %q, want a tag-boosted term", got.Keywords[0])
	}
	if got.OneLiner == "" || len(got.OneLiner) > fallbackOneLinerMax+3 {
		t.Errorf("one-liner = %q", got.OneLiner)
	}
}

func TestTopKeywordsFiltersNoise(t *testing.T) {
	content := "the and for with this that would should very " +
		"entropy entropy entropy archive archive decay"
	got := topKeywords(content, "", 10)

	for _, w := range got {
		if stopwords[w] || len(w) < 4 {
			t.Errorf("noise word %q survived filtering", w)
		}
	}
	if len(got) == 0 || got[0] != "entropy" {
		t.Errorf("keywords = %v, want entropy ranked first", got)
	}
}

func TestTopKeywordsDeterministicTies(t *testing.T) {
	content := "omega alpha kappa omega alpha kappa"
	a := topKeywords(content, "", 10)
	b := topKeywords(content, "", 10)
	if strings.Join(a, ",") != strings.Join(b, ",") {
		t.Errorf("tie ordering unstable: %v vs %v", a, b)
	}
	// Equal counts fall back to lexical order.
	want := []string{"alpha", "kappa", "omega"}
	for i := range want {
		if a[i] != want[i] {
			t.Errorf("keywords = %v, want %v", a, want)
			break
		}
	}
}
