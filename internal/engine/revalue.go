package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/llm"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

// RevalueItem scores one item through the valuation provider and persists
// the new dimension scores. Valuation runs out-of-band from decay: when the
// provider is down or unconfigured the item keeps its last-known scores and
// the wrapped error tells the caller why.
func (e *Engine) RevalueItem(ctx context.Context, ownerID, itemID string) (*store.Item, error) {
	item, err := e.DB.GetItem(ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("revalue %s: %w", itemID, ErrItemNotFound)
	}
	if e.LLM == nil {
		return nil, fmt.Errorf("revalue %s: %w: no provider configured", itemID, llm.ErrUnavailable)
	}

	// Degraded items are valued on whatever fidelity remains.
	source := item.Content
	if source == "" {
		source = item.Summary
	}
	if source == "" {
		source = item.MinimalJSON
	}

	v, err := e.LLM.Analyze(ctx, llm.AnalyzeRequest{
		Title:       item.Title,
		Content:     source,
		ContentType: item.ContentType,
		Tags:        item.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("revalue %s: %w", itemID, err)
	}
	if v == nil {
		return nil, fmt.Errorf("revalue %s: %w: empty response", itemID, llm.ErrUnavailable)
	}

	stored, err := e.DB.GetValuationWeights(ownerID)
	if err != nil {
		return nil, err
	}
	weights := Weights{
		Relevance:          stored.Relevance,
		Uniqueness:         stored.Uniqueness,
		Reconstructability: stored.Reconstructability,
	}
	score := SemanticScore(v.Relevance, v.Uniqueness, v.Reconstructability, weights)

	if err := e.DB.UpdateItemScores(item.ID, v.Relevance, v.Uniqueness, v.Reconstructability, v.Reasoning, score, nil); err != nil {
		return nil, fmt.Errorf("revalue %s: %w", itemID, err)
	}
	if v.Summary != "" {
		if err := e.DB.UpdateItemDerived(item.ID, v.Summary, ""); err != nil {
			log.Printf("revalue: save summary %s: %v", itemID, err)
		}
	}
	return e.DB.GetItem(ownerID, itemID)
}

// RevalueStale analyzes items that have never been scored by the provider.
// Runs from the revaluation schedule; per-item failures are logged and
// skipped so one bad item cannot wedge the sweep.
func (e *Engine) RevalueStale(ctx context.Context, ownerID string, limit int) (int, error) {
	if e.LLM == nil {
		return 0, nil
	}
	items, err := e.DB.ListUnanalyzedItems(ownerID, limit)
	if err != nil {
		return 0, err
	}

	revalued := 0
	for i := range items {
		if ctx.Err() != nil {
			return revalued, ctx.Err()
		}
		if _, err := e.RevalueItem(ctx, ownerID, items[i].ID); err != nil {
			log.Printf("revalue: %v", err)
			continue
		}
		revalued++
	}
	if revalued > 0 {
		log.Printf("revalue: %s: scored %d item(s)", ownerID, revalued)
	}
	return revalued, nil
}

// SetWeights stores new valuation weights (normalized) and recomputes every
// stored semantic score under them, so list ordering reflects the change
// immediately rather than on the next decay cycle.
func (e *Engine) SetWeights(ownerID string, w Weights) (*store.ValuationWeights, error) {
	norm := w.Normalize()
	stored := &store.ValuationWeights{
		OwnerID:            ownerID,
		Relevance:          norm.Relevance,
		Uniqueness:         norm.Uniqueness,
		Reconstructability: norm.Reconstructability,
	}
	if err := e.DB.SaveValuationWeights(stored); err != nil {
		return nil, err
	}
	if err := e.DB.RecomputeSemanticScores(ownerID, norm.Relevance, norm.Uniqueness, norm.Reconstructability); err != nil {
		return nil, err
	}
	return stored, nil
}
