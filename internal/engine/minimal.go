package engine

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"
)

const (
	fallbackSummaryMax  = 1000
	fallbackOneLinerMax = 140
	fallbackKeywordMax  = 10
)

// Fallback content production for items entering the summarized or minimal
// stage when no summarization provider is configured. Deterministic rules:
// - summary: leading fallbackSummaryMax chars, cut at a word boundary
// - minimal: title, top keywords by frequency, one-line lead
func FallbackSummary(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= fallbackSummaryMax {
		return content
	}
	cut := content[:fallbackSummaryMax]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > fallbackSummaryMax/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}

// FallbackMinimal produces the minimal-stage JSON trace of an item.
func FallbackMinimal(title, content, tags string) (string, error) {
	lead := strings.TrimSpace(content)
	if idx := strings.IndexAny(lead, "\n"); idx > 0 {
		lead = lead[:idx]
	}
	if len(lead) > fallbackOneLinerMax {
		cut := lead[:fallbackOneLinerMax]
		if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > fallbackOneLinerMax/2 {
			cut = cut[:idx]
		}
		lead = strings.TrimSpace(cut) + "..."
	}

	minimal := struct {
		Title    string   `json:"title"`
		Keywords []string `json:"keywords"`
		OneLiner string   `json:"one_liner"`
	}{
		Title:    title,
		Keywords: topKeywords(content, tags, fallbackKeywordMax),
		OneLiner: lead,
	}

	out, err := json.Marshal(minimal)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// stopwords excluded from keyword extraction.
var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true,
	"being": true, "between": true, "both": true, "could": true, "does": true,
	"each": true, "from": true, "have": true, "having": true, "here": true,
	"into": true, "just": true, "more": true, "most": true, "other": true,
	"over": true, "same": true, "should": true, "some": true, "such": true,
	"than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "through": true,
	"under": true, "very": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true,
	"would": true, "your": true,
}

func topKeywords(content, tags string, max int) []string {
	counts := make(map[string]int)

	// Tags are curated; count them double so they surface first.
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			counts[tag] += 2
		}
	}

	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		counts[w]++
	}

	keywords := make([]string, 0, len(counts))
	for w := range counts {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > max {
		keywords = keywords[:max]
	}
	return keywords
}
