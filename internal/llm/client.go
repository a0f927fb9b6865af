package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/config"
)

// ErrUnavailable wraps any provider failure. Callers treat it as "keep the
// last-known scores"; valuation never blocks a decay cycle.
var ErrUnavailable = errors.New("valuation service unavailable")

// Client is the interface for external scoring and summarization providers.
type Client interface {
	// Analyze scores an item's archival value on three 0-100 dimensions.
	Analyze(ctx context.Context, req AnalyzeRequest) (*Valuation, error)
	// Degrade produces replacement content for an item entering the
	// summarized or minimal stage.
	Degrade(ctx context.Context, req DegradeRequest) (*Degraded, error)
}

// AnalyzeRequest describes one item to score.
type AnalyzeRequest struct {
	Title       string
	Content     string
	ContentType string
	Tags        string
}

// Valuation is the scored result of an Analyze call.
type Valuation struct {
	Relevance          float64 `json:"relevance"`
	Uniqueness         float64 `json:"uniqueness"`
	Reconstructability float64 `json:"reconstructability"`
	Reasoning          string  `json:"reasoning"`
	Summary            string  `json:"summary"`
	Provider           string  `json:"-"`
}

// DegradeRequest asks for reduced content for a stage transition.
type DegradeRequest struct {
	Title       string
	Content     string
	TargetStage string // "summarized" or "minimal"
}

// Degraded is the reduced content produced by a Degrade call.
type Degraded struct {
	Summary     string `json:"summary"`
	MinimalJSON string `json:"minimal_json"`
	Provider    string `json:"-"`
}

// NewClient creates a provider client based on the config. Provider "none"
// returns nil: the engine runs fine without external valuation, items just
// keep their stored scores.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model), nil
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.OllamaModel
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func parseValuation(text, provider string) (*Valuation, error) {
	var v Valuation
	if err := json.Unmarshal([]byte(stripFences(text)), &v); err != nil {
		return nil, fmt.Errorf("parse valuation response: %w", err)
	}
	v.Relevance = clamp100(v.Relevance)
	v.Uniqueness = clamp100(v.Uniqueness)
	v.Reconstructability = clamp100(v.Reconstructability)
	v.Provider = provider
	return &v, nil
}

func parseDegraded(text, provider string) (*Degraded, error) {
	var d Degraded
	if err := json.Unmarshal([]byte(stripFences(text)), &d); err != nil {
		return nil, fmt.Errorf("parse degrade response: %w", err)
	}
	d.Provider = provider
	return &d, nil
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
