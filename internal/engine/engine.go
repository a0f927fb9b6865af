package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/bus"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/llm"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

const (
	refineQueueSize  = 256
	refineJobTimeout = 60 * time.Second
)

// ErrItemNotFound reports an operation against an item id the owner does not
// have.
var ErrItemNotFound = errors.New("item not found")

// SimulationDefaults seed a simulation the first time an owner touches it.
type SimulationDefaults struct {
	StartCapacityKB    float64
	DecayPercent       float64
	DecayIntervalYears float64
	TotalYears         float64
	Tick               time.Duration
}

func (d SimulationDefaults) withFallbacks() SimulationDefaults {
	if d.StartCapacityKB <= 0 {
		d.StartCapacityKB = 1_000_000
	}
	if d.DecayPercent <= 0 {
		d.DecayPercent = 5
	}
	if d.DecayIntervalYears <= 0 {
		d.DecayIntervalYears = 2
	}
	if d.TotalYears <= 0 {
		d.TotalYears = 60
	}
	if d.Tick <= 0 {
		d.Tick = 5 * time.Second
	}
	return d
}

// Engine orchestrates decay scheduling, item valuation, degraded-content
// production, and alerting over the archive store.
type Engine struct {
	DB       *store.DB
	LLM      llm.Client
	Bus      *bus.Bus
	Defaults SimulationDefaults

	mu      sync.Mutex
	runners map[string]*ownerRunner

	refine   chan refineJob
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates an Engine and starts its content-refinement worker. A nil
// client disables external valuation; deterministic fallbacks are used
// instead. A nil eventBus gets an internal one so publishing never needs a
// guard.
func New(db *store.DB, client llm.Client, eventBus *bus.Bus, defaults SimulationDefaults) *Engine {
	if eventBus == nil {
		eventBus = bus.New()
	}
	e := &Engine{
		DB:       db,
		LLM:      client,
		Bus:      eventBus,
		Defaults: defaults.withFallbacks(),
		runners:  make(map[string]*ownerRunner),
		refine:   make(chan refineJob, refineQueueSize),
		stopCh:   make(chan struct{}),
	}
	go e.refineWorker()
	return e
}

// Stop shuts down the engine's background goroutines, including any running
// simulation tickers. In-flight decay cycles finish before their ticker
// exits.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.mu.Lock()
		for _, r := range e.runners {
			if r.tickStop != nil {
				close(r.tickStop)
				r.tickStop = nil
			}
		}
		e.mu.Unlock()
	})
}

// IngestItem stores a new archive item at full fidelity. Size is derived
// from the content when the caller does not supply one.
func (e *Engine) IngestItem(item *store.Item) error {
	if item.OwnerID == "" {
		return fmt.Errorf("ingest item: owner id required")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("ingest item: title required")
	}
	if item.OriginalSizeKB <= 0 {
		item.OriginalSizeKB = float64(len(item.Content)) / 1024
	}
	if err := e.DB.CreateItem(item); err != nil {
		return fmt.Errorf("ingest item: %w", err)
	}
	return nil
}

// DeleteItem discards an item's content immediately, outside the decay
// schedule. The row survives as a tombstone so history stays attributable.
func (e *Engine) DeleteItem(ownerID, itemID string) error {
	item, err := e.DB.GetItem(ownerID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("delete item %s: %w", itemID, ErrItemNotFound)
	}
	if item.Stage == StageDeleted {
		return nil
	}
	if err := e.DB.ApplyTransition(item.ID, StageDeleted, 0); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	e.Bus.Publish(bus.Event{
		Type:    bus.TypeItemTransitioned,
		OwnerID: ownerID,
		ItemID:  item.ID,
		Stage:   StageDeleted,
	})
	return nil
}

// Status is a point-in-time summary of an owner's archive and simulation.
type Status struct {
	State        *store.SimulationState
	TotalItems   int
	ActiveItems  int
	StorageKB    float64
	DecayEvents  int
	UnreadAlerts int
}

// Status reports the owner's current standing without mutating anything.
func (e *Engine) Status(ownerID string) (*Status, error) {
	st, err := e.DB.GetSimulationState(ownerID)
	if err != nil {
		return nil, err
	}
	total, err := e.DB.CountItems(ownerID)
	if err != nil {
		return nil, err
	}
	active, err := e.DB.ListActiveItems(ownerID)
	if err != nil {
		return nil, err
	}
	storage := 0.0
	for i := range active {
		storage += active[i].CurrentSizeKB
	}
	events, err := e.DB.CountDecayEvents(ownerID)
	if err != nil {
		return nil, err
	}
	unread, err := e.DB.CountUnreadAlerts(ownerID)
	if err != nil {
		return nil, err
	}
	return &Status{
		State:        st,
		TotalItems:   total,
		ActiveItems:  len(active),
		StorageKB:    storage,
		DecayEvents:  events,
		UnreadAlerts: unread,
	}, nil
}

// emitAlert persists and publishes a derived alert. Nil alerts are the
// common case and a no-op; a failed insert is logged and swallowed so no
// alert path can abort a decay cycle.
func (e *Engine) emitAlert(a *store.Alert) {
	if a == nil {
		return
	}
	if err := e.DB.CreateAlert(a); err != nil {
		log.Printf("alerts: create %s: %v", a.Type, err)
		return
	}
	e.Bus.Publish(bus.Event{
		Type:     bus.TypeAlertRaised,
		OwnerID:  a.OwnerID,
		ItemID:   a.ItemID,
		Severity: a.Severity,
	})
}

type refineJob struct {
	ownerID string
	itemID  string
	stage   string
}

// enqueueRefine schedules degraded-content production for an item that just
// entered the summarized or minimal stage. The queue is bounded; under
// sustained pressure jobs are dropped rather than stalling the scheduler,
// and the item keeps its previous-stage content until a later pass.
func (e *Engine) enqueueRefine(ownerID, itemID, stage string) {
	if stage != StageSummarized && stage != StageMinimal {
		return
	}
	select {
	case e.refine <- refineJob{ownerID: ownerID, itemID: itemID, stage: stage}:
	default:
		log.Printf("refine: queue full, dropping %s", itemID)
	}
}

func (e *Engine) refineWorker() {
	for {
		select {
		case job := <-e.refine:
			e.refineItem(job)
		case <-e.stopCh:
			return
		}
	}
}

// refineItem produces the summary or minimal trace for a degraded item. The
// configured provider is asked first; on failure or absence the
// deterministic fallback fills in, so degraded items never stay blank.
func (e *Engine) refineItem(job refineJob) {
	item, err := e.DB.GetItem(job.ownerID, job.itemID)
	if err != nil {
		log.Printf("refine: load %s: %v", job.itemID, err)
		return
	}
	if item == nil || item.Stage != job.stage {
		return
	}

	source := item.Content
	if job.stage == StageMinimal && item.Summary != "" {
		source = item.Summary
	}
	if source == "" {
		return
	}

	var summary, minimalJSON string
	if e.LLM != nil {
		ctx, cancel := context.WithTimeout(context.Background(), refineJobTimeout)
		degraded, err := e.LLM.Degrade(ctx, llm.DegradeRequest{
			Title:       item.Title,
			Content:     source,
			TargetStage: job.stage,
		})
		cancel()
		if err != nil {
			log.Printf("refine: degrade %s: %v (using fallback)", job.itemID, err)
		} else if degraded != nil {
			summary = degraded.Summary
			minimalJSON = degraded.MinimalJSON
		}
	}

	if job.stage == StageSummarized && summary == "" {
		summary = FallbackSummary(source)
	}
	if job.stage == StageMinimal && minimalJSON == "" {
		minimalJSON, err = FallbackMinimal(item.Title, source, item.Tags)
		if err != nil {
			log.Printf("refine: minimal trace %s: %v", job.itemID, err)
			return
		}
	}

	if err := e.DB.UpdateItemDerived(item.ID, summary, minimalJSON); err != nil {
		log.Printf("refine: save %s: %v", job.itemID, err)
	}
}
