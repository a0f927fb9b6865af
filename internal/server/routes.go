package server

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/engine"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/llm"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

// Response shapes. Store structs stay tag-free; the API decides what leaves
// the process. Embeddings are opaque and write-only, so no view carries one.

type itemJSON struct {
	ID                 string  `json:"id"`
	OwnerID            string  `json:"owner_id"`
	Title              string  `json:"title"`
	ContentType        string  `json:"content_type,omitempty"`
	Tags               string  `json:"tags,omitempty"`
	Stage              string  `json:"stage"`
	OriginalSizeKB     float64 `json:"original_size_kb"`
	CurrentSizeKB      float64 `json:"current_size_kb"`
	Relevance          float64 `json:"relevance"`
	Uniqueness         float64 `json:"uniqueness"`
	Reconstructability float64 `json:"reconstructability"`
	SemanticScore      float64 `json:"semantic_score"`
	Reasoning          string  `json:"reasoning,omitempty"`
	AnalyzedAt         *int64  `json:"analyzed_at,omitempty"`
	IngestedAt         int64   `json:"ingested_at"`
	UpdatedAt          int64   `json:"updated_at"`
	Content            string  `json:"content,omitempty"`
	Summary            string  `json:"summary,omitempty"`
	MinimalJSON        string  `json:"minimal_json,omitempty"`
}

func itemView(it *store.Item, detail bool) itemJSON {
	v := itemJSON{
		ID:                 it.ID,
		OwnerID:            it.OwnerID,
		Title:              it.Title,
		ContentType:        it.ContentType,
		Tags:               it.Tags,
		Stage:              it.Stage,
		OriginalSizeKB:     it.OriginalSizeKB,
		CurrentSizeKB:      it.CurrentSizeKB,
		Relevance:          it.ValRelevance,
		Uniqueness:         it.ValUniqueness,
		Reconstructability: it.ValReconstructability,
		SemanticScore:      it.SemanticScore,
		Reasoning:          it.ValReasoning,
		AnalyzedAt:         it.AnalyzedAt,
		IngestedAt:         it.IngestedAt,
		UpdatedAt:          it.UpdatedAt,
	}
	if detail {
		v.Content = it.Content
		v.Summary = it.Summary
		v.MinimalJSON = it.MinimalJSON
	}
	return v
}

type stateJSON struct {
	OwnerID            string  `json:"owner_id"`
	StartCapacityKB    float64 `json:"start_capacity_kb"`
	CurrentCapacityKB  float64 `json:"current_capacity_kb"`
	CurrentYear        float64 `json:"current_year"`
	TotalYears         float64 `json:"total_years"`
	DecayPercent       float64 `json:"decay_percent"`
	DecayIntervalYears float64 `json:"decay_interval_years"`
	IsRunning          bool    `json:"is_running"`
	UpdatedAt          int64   `json:"updated_at"`
}

func stateView(st *store.SimulationState) *stateJSON {
	if st == nil {
		return nil
	}
	return &stateJSON{
		OwnerID:            st.OwnerID,
		StartCapacityKB:    st.StartCapacityKB,
		CurrentCapacityKB:  st.CurrentCapacityKB,
		CurrentYear:        st.CurrentYear,
		TotalYears:         st.TotalYears,
		DecayPercent:       st.DecayPercent,
		DecayIntervalYears: st.DecayIntervalYears,
		IsRunning:          st.IsRunning,
		UpdatedAt:          st.UpdatedAt,
	}
}

type eventJSON struct {
	ID             int64   `json:"id"`
	Seq            int64   `json:"seq"`
	Year           float64 `json:"year"`
	CapacityBefore float64 `json:"capacity_before_kb"`
	CapacityAfter  float64 `json:"capacity_after_kb"`
	StorageBefore  float64 `json:"storage_before_kb"`
	StorageAfter   float64 `json:"storage_after_kb"`
	ItemsAffected  int     `json:"items_affected"`
	CreatedAt      int64   `json:"created_at"`
}

func eventView(ev *store.DecayEvent) eventJSON {
	return eventJSON{
		ID:             ev.ID,
		Seq:            ev.Seq,
		Year:           ev.Year,
		CapacityBefore: ev.CapacityBefore,
		CapacityAfter:  ev.CapacityAfter,
		StorageBefore:  ev.StorageBefore,
		StorageAfter:   ev.StorageAfter,
		ItemsAffected:  ev.ItemsAffected,
		CreatedAt:      ev.CreatedAt,
	}
}

type logEntryJSON struct {
	ID            int64   `json:"id"`
	EventID       int64   `json:"event_id"`
	ItemID        string  `json:"item_id"`
	FromStage     string  `json:"from_stage"`
	ToStage       string  `json:"to_stage"`
	Reason        string  `json:"reason"`
	SemanticScore float64 `json:"semantic_score"`
	SizeBeforeKB  float64 `json:"size_before_kb"`
	SizeAfterKB   float64 `json:"size_after_kb"`
	CreatedAt     int64   `json:"created_at"`
}

func logView(e *store.DegradationLogEntry) logEntryJSON {
	return logEntryJSON{
		ID:            e.ID,
		EventID:       e.EventID,
		ItemID:        e.ItemID,
		FromStage:     e.FromStage,
		ToStage:       e.ToStage,
		Reason:        e.Reason,
		SemanticScore: e.SemanticScore,
		SizeBeforeKB:  e.SizeBeforeKB,
		SizeAfterKB:   e.SizeAfterKB,
		CreatedAt:     e.CreatedAt,
	}
}

type alertJSON struct {
	ID        string `json:"id"`
	EventID   *int64 `json:"event_id,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
}

func alertView(a *store.Alert) alertJSON {
	return alertJSON{
		ID:        a.ID,
		EventID:   a.EventID,
		ItemID:    a.ItemID,
		Type:      a.Type,
		Severity:  a.Severity,
		Message:   a.Message,
		Read:      a.Read,
		CreatedAt: a.CreatedAt,
	}
}

type baselineJSON struct {
	Strategy              string  `json:"strategy"`
	Year                  int     `json:"year"`
	KnowledgeCoverage     float64 `json:"knowledge_coverage"`
	SemanticDiversity     float64 `json:"semantic_diversity"`
	RetrievalQuality      float64 `json:"retrieval_quality"`
	ReconstructionQuality float64 `json:"reconstruction_quality"`
	StorageEfficiency     float64 `json:"storage_efficiency"`
	ItemsRemaining        int     `json:"items_remaining"`
	TotalSizeKB           float64 `json:"total_size_kb"`
}

func baselineView(r *store.BaselineResult) baselineJSON {
	return baselineJSON{
		Strategy:              r.Strategy,
		Year:                  r.Year,
		KnowledgeCoverage:     r.KnowledgeCoverage,
		SemanticDiversity:     r.SemanticDiversity,
		RetrievalQuality:      r.RetrievalQuality,
		ReconstructionQuality: r.ReconstructionQuality,
		StorageEfficiency:     r.StorageEfficiency,
		ItemsRemaining:        r.ItemsRemaining,
		TotalSizeKB:           r.TotalSizeKB,
	}
}

type weightsJSON struct {
	Relevance          float64 `json:"relevance"`
	Uniqueness         float64 `json:"uniqueness"`
	Reconstructability float64 `json:"reconstructability"`
	UpdatedAt          int64   `json:"updated_at,omitempty"`
}

func (s *Server) engineUnavailable(w http.ResponseWriter) bool {
	if s.engine != nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(map[string]string{"error": "engine not configured"})
	return true
}

// ---- items ----

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID            string    `json:"owner_id"`
		Title              string    `json:"title"`
		ContentType        string    `json:"content_type"`
		Tags               string    `json:"tags"`
		Content            string    `json:"content"`
		SizeKB             float64   `json:"size_kb"`
		Relevance          float64   `json:"relevance"`
		Uniqueness         float64   `json:"uniqueness"`
		Reconstructability float64   `json:"reconstructability"`
		Embedding          []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, `{"error":"title required"}`, http.StatusBadRequest)
		return
	}
	if s.engineUnavailable(w) {
		return
	}

	owner := req.OwnerID
	if owner == "" {
		owner = s.ownerFrom(r)
	}
	item := &store.Item{
		OwnerID:               owner,
		Title:                 req.Title,
		ContentType:           req.ContentType,
		Tags:                  req.Tags,
		Content:               req.Content,
		Embedding:             req.Embedding,
		OriginalSizeKB:        req.SizeKB,
		ValRelevance:          req.Relevance,
		ValUniqueness:         req.Uniqueness,
		ValReconstructability: req.Reconstructability,
	}
	if err := s.engine.IngestItem(item); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(itemView(item, true))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerFrom(r)

	var items []store.Item
	var err error
	if r.URL.Query().Get("state") == "active" {
		// Degradation order: the next items to lose fidelity come first.
		items, err = s.db.ListActiveItems(owner)
	} else {
		items, err = s.db.ListItems(owner)
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]itemJSON, len(items))
	for i := range items {
		out[i] = itemView(&items[i], false)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(out),
		"items": out,
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerFrom(r)
	item, err := s.db.GetItem(owner, chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, `{"error":"item not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(itemView(item, true))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}
	owner := s.ownerFrom(r)

	err := s.engine.DeleteItem(owner, chi.URLParam(r, "itemID"))
	if errors.Is(err, engine.ErrItemNotFound) {
		http.Error(w, `{"error":"item not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerFrom(r)
	itemID := chi.URLParam(r, "itemID")

	entries, err := s.db.ListItemHistory(owner, itemID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]logEntryJSON, len(entries))
	for i := range entries {
		out[i] = logView(&entries[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"item_id": itemID,
		"count":   len(out),
		"history": out,
	})
}

func (s *Server) handleRevalueItem(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}
	owner := s.ownerFrom(r)

	item, err := s.engine.RevalueItem(r.Context(), owner, chi.URLParam(r, "itemID"))
	switch {
	case errors.Is(err, engine.ErrItemNotFound):
		http.Error(w, `{"error":"item not found"}`, http.StatusNotFound)
		return
	case errors.Is(err, llm.ErrUnavailable):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	case err != nil:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(itemView(item, true))
}

// ---- simulation ----

// handleSimulationState reports the owner's decay clock. First read creates
// the simulation row from the configured defaults so the dashboard always
// has parameters to render.
func (s *Server) handleSimulationState(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}

	st, err := s.engine.InitSimulation(s.ownerFrom(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateView(st))
}

func (s *Server) handleSimulationStart(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}

	if err := s.engine.StartSimulation(s.ownerFrom(r)); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "running"})
}

func (s *Server) handleSimulationPause(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}

	if err := s.engine.PauseSimulation(s.ownerFrom(r)); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "paused"})
}

func (s *Server) handleSimulationStep(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}
	owner := s.ownerFrom(r)

	err := s.engine.StepSimulation(owner)
	switch {
	case errors.Is(err, engine.ErrSchedulerConflict):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	case errors.Is(err, engine.ErrSimulationComplete):
		// The horizon was reached; nothing decayed. Not an API error.
		st, _ := s.db.GetSimulationState(owner)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "complete",
			"state":  stateView(st),
		})
		return
	case err != nil:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	st, err := s.db.GetSimulationState(owner)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "stepped",
		"state":  stateView(st),
	})
}

func (s *Server) handleSimulationReset(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}

	if err := s.engine.ResetSimulation(s.ownerFrom(r)); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
}

// ---- valuation weights ----

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	stored, err := s.db.GetValuationWeights(s.ownerFrom(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(weightsJSON{
		Relevance:          stored.Relevance,
		Uniqueness:         stored.Uniqueness,
		Reconstructability: stored.Reconstructability,
		UpdatedAt:          stored.UpdatedAt,
	})
}

func (s *Server) handlePutWeights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID            string  `json:"owner_id"`
		Relevance          float64 `json:"relevance"`
		Uniqueness         float64 `json:"uniqueness"`
		Reconstructability float64 `json:"reconstructability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Relevance < 0 || req.Uniqueness < 0 || req.Reconstructability < 0 {
		http.Error(w, `{"error":"weights must be non-negative"}`, http.StatusBadRequest)
		return
	}
	if req.Relevance == 0 && req.Uniqueness == 0 && req.Reconstructability == 0 {
		http.Error(w, `{"error":"at least one weight must be positive"}`, http.StatusBadRequest)
		return
	}
	if s.engineUnavailable(w) {
		return
	}

	owner := req.OwnerID
	if owner == "" {
		owner = s.ownerFrom(r)
	}
	stored, err := s.engine.SetWeights(owner, engine.Weights{
		Relevance:          req.Relevance,
		Uniqueness:         req.Uniqueness,
		Reconstructability: req.Reconstructability,
	})
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(weightsJSON{
		Relevance:          stored.Relevance,
		Uniqueness:         stored.Uniqueness,
		Reconstructability: stored.Reconstructability,
		UpdatedAt:          stored.UpdatedAt,
	})
}

// ---- decay events ----

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerFrom(r)

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := s.db.ListDecayEvents(owner, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]eventJSON, len(events))
	for i := range events {
		out[i] = eventView(&events[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":  len(out),
		"events": out,
	})
}

// eventFor loads a decay event and hides other owners' rows behind a 404.
func (s *Server) eventFor(w http.ResponseWriter, r *http.Request, owner string) *store.DecayEvent {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid event id"}`, http.StatusBadRequest)
		return nil
	}
	ev, err := s.db.GetDecayEvent(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return nil
	}
	if ev == nil || ev.OwnerID != owner {
		http.Error(w, `{"error":"event not found"}`, http.StatusNotFound)
		return nil
	}
	return ev
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev := s.eventFor(w, r, s.ownerFrom(r))
	if ev == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventView(ev))
}

func (s *Server) handleEventLog(w http.ResponseWriter, r *http.Request) {
	ev := s.eventFor(w, r, s.ownerFrom(r))
	if ev == nil {
		return
	}

	entries, err := s.db.ListDegradationLog(ev.ID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]logEntryJSON, len(entries))
	for i := range entries {
		out[i] = logView(&entries[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"event": eventView(ev),
		"count": len(out),
		"log":   out,
	})
}

// ---- alerts ----

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerFrom(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	alerts, err := s.db.ListAlerts(owner, unreadOnly, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]alertJSON, len(alerts))
	for i := range alerts {
		out[i] = alertView(&alerts[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":  len(out),
		"alerts": out,
	})
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerFrom(r)

	ok, err := s.db.MarkAlertRead(owner, chi.URLParam(r, "alertID"))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"alert not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "read"})
}

// ---- baseline comparison ----

func (s *Server) handleRunBaseline(w http.ResponseWriter, r *http.Request) {
	if s.engineUnavailable(w) {
		return
	}

	// Optional body: {"seed": 42} pins the random strategy for reproducible
	// comparisons.
	var req struct {
		Seed *int64 `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	var rng *rand.Rand
	if req.Seed != nil {
		rng = rand.New(rand.NewSource(*req.Seed))
	}

	results, err := s.engine.RunBaseline(s.ownerFrom(r), rng)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]baselineJSON, len(results))
	for i := range results {
		out[i] = baselineView(&results[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(out),
		"results": out,
	})
}

func (s *Server) handleBaselineResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.db.ListBaselineResults(s.ownerFrom(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]baselineJSON, len(results))
	for i := range results {
		out[i] = baselineView(&results[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(out),
		"results": out,
	})
}
