package engine

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/bus"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

var (
	// ErrSchedulerConflict is returned when a manual step arrives while the
	// simulation is auto-running or another cycle holds the owner's lock.
	// Conflicting steps are rejected, never queued.
	ErrSchedulerConflict = errors.New("decay cycle already in progress")

	// ErrSimulationComplete is returned once the decay clock has passed the
	// simulation horizon. Further steps are no-ops.
	ErrSimulationComplete = errors.New("simulation complete")
)

// ownerRunner serializes decay work for one owner. The mutex guards the
// cycle itself; tickStop is non-nil exactly while an auto-tick goroutine is
// live, and is written only under the engine mutex.
type ownerRunner struct {
	mu       sync.Mutex
	tickStop chan struct{}
}

func (e *Engine) runner(ownerID string) *ownerRunner {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runners[ownerID]
	if !ok {
		r = &ownerRunner{}
		e.runners[ownerID] = r
	}
	return r
}

// InitSimulation returns the owner's simulation state, creating it from the
// engine defaults on first touch.
func (e *Engine) InitSimulation(ownerID string) (*store.SimulationState, error) {
	st, err := e.DB.GetSimulationState(ownerID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		return st, nil
	}
	st = &store.SimulationState{
		OwnerID:            ownerID,
		StartCapacityKB:    e.Defaults.StartCapacityKB,
		CurrentCapacityKB:  e.Defaults.StartCapacityKB,
		TotalYears:         e.Defaults.TotalYears,
		DecayPercent:       e.Defaults.DecayPercent,
		DecayIntervalYears: e.Defaults.DecayIntervalYears,
	}
	if err := e.DB.SaveSimulationState(st); err != nil {
		return nil, err
	}
	return st, nil
}

// StartSimulation begins auto-ticking decay cycles for the owner. Starting
// an already-running simulation is a no-op.
func (e *Engine) StartSimulation(ownerID string) error {
	if _, err := e.InitSimulation(ownerID); err != nil {
		return err
	}
	r := e.runner(ownerID)

	e.mu.Lock()
	if r.tickStop != nil {
		e.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	r.tickStop = stop
	e.mu.Unlock()

	if err := e.DB.SetSimulationRunning(ownerID, true); err != nil {
		e.mu.Lock()
		r.tickStop = nil
		e.mu.Unlock()
		close(stop)
		return err
	}

	go e.runTicker(ownerID, r, stop)
	log.Printf("scheduler: %s: started, one decay cycle per %s", ownerID, e.Defaults.Tick)
	return nil
}

// PauseSimulation stops auto-ticking. An in-flight cycle completes
// atomically; the running flag is cleared only after it commits.
func (e *Engine) PauseSimulation(ownerID string) error {
	r := e.runner(ownerID)

	e.mu.Lock()
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
	e.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := e.DB.SetSimulationRunning(ownerID, false); err != nil {
		return err
	}
	log.Printf("scheduler: %s: paused", ownerID)
	return nil
}

// StepSimulation advances the simulation by exactly one decay cycle. Steps
// are rejected with ErrSchedulerConflict while the simulation is
// auto-running or while another cycle is in flight.
func (e *Engine) StepSimulation(ownerID string) error {
	st, err := e.InitSimulation(ownerID)
	if err != nil {
		return err
	}
	if st.IsRunning {
		return ErrSchedulerConflict
	}

	r := e.runner(ownerID)
	e.mu.Lock()
	ticking := r.tickStop != nil
	e.mu.Unlock()
	if ticking {
		return ErrSchedulerConflict
	}

	if !r.mu.TryLock() {
		return ErrSchedulerConflict
	}
	defer r.mu.Unlock()
	return e.processDecayEvent(ownerID)
}

// ResetSimulation rewinds the clock to year zero, restores item stages and
// sizes, and clears decay events, degradation history, and baseline
// comparisons. Alerts are kept as a record of what happened, and content
// already discarded by deletion is not resurrected. Reset waits for any
// in-flight cycle instead of interrupting it.
func (e *Engine) ResetSimulation(ownerID string) error {
	r := e.runner(ownerID)

	e.mu.Lock()
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
	e.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := e.InitSimulation(ownerID)
	if err != nil {
		return err
	}
	st.CurrentYear = 0
	st.CurrentCapacityKB = st.StartCapacityKB
	st.IsRunning = false
	if err := e.DB.SaveSimulationState(st); err != nil {
		return fmt.Errorf("reset simulation: %w", err)
	}
	if err := e.DB.RestoreItems(ownerID); err != nil {
		return fmt.Errorf("reset simulation: %w", err)
	}
	if err := e.DB.DeleteDecayEvents(ownerID); err != nil {
		return fmt.Errorf("reset simulation: %w", err)
	}
	if err := e.DB.DeleteBaselineResults(ownerID); err != nil {
		return fmt.Errorf("reset simulation: %w", err)
	}
	log.Printf("scheduler: %s: reset to year 0", ownerID)
	return nil
}

// ResumeRunning restarts tickers for every owner whose simulation was
// running when the process last stopped.
func (e *Engine) ResumeRunning() error {
	owners, err := e.DB.ListRunningOwners()
	if err != nil {
		return err
	}
	for _, owner := range owners {
		if err := e.StartSimulation(owner); err != nil {
			log.Printf("scheduler: resume %s: %v", owner, err)
		}
	}
	return nil
}

func (e *Engine) runTicker(ownerID string, r *ownerRunner, stop chan struct{}) {
	ticker := time.NewTicker(e.Defaults.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A close that raced the tick wins; never start a cycle
			// after pause or reset asked us to stop.
			select {
			case <-stop:
				return
			default:
			}

			r.mu.Lock()
			err := e.processDecayEvent(ownerID)
			r.mu.Unlock()

			if errors.Is(err, ErrSimulationComplete) {
				e.mu.Lock()
				if r.tickStop == stop {
					r.tickStop = nil
				}
				e.mu.Unlock()
				log.Printf("scheduler: %s: horizon reached, ticker stopped", ownerID)
				return
			}
			if err != nil {
				log.Printf("scheduler: %s: decay cycle: %v", ownerID, err)
			}
		case <-stop:
			return
		}
	}
}

// processDecayEvent runs one complete decay cycle. The caller must hold the
// owner's runner lock. Any failure before the clock advance leaves the
// clock untouched, and the (owner, year) upsert makes the retried cycle
// overwrite its earlier partial row instead of duplicating it.
func (e *Engine) processDecayEvent(ownerID string) error {
	st, err := e.DB.GetSimulationState(ownerID)
	if err != nil {
		return fmt.Errorf("load simulation state: %w", err)
	}
	if st == nil {
		return fmt.Errorf("simulation not initialized for %s", ownerID)
	}

	newYear := st.CurrentYear + st.DecayIntervalYears
	if newYear > st.TotalYears {
		if st.IsRunning {
			if err := e.DB.SetSimulationRunning(ownerID, false); err != nil {
				return err
			}
		}
		return ErrSimulationComplete
	}

	capacityAfter := math.Floor(st.CurrentCapacityKB * (1 - st.DecayPercent/100))

	items, err := e.DB.ListActiveItems(ownerID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	storageBefore := 0.0
	for i := range items {
		storageBefore += items[i].CurrentSizeKB
	}

	ev := &store.DecayEvent{
		OwnerID:        ownerID,
		Seq:            int64(math.Round(newYear / st.DecayIntervalYears)),
		Year:           newYear,
		CapacityBefore: st.CurrentCapacityKB,
		CapacityAfter:  capacityAfter,
		StorageBefore:  storageBefore,
		StorageAfter:   storageBefore,
	}
	if err := e.DB.UpsertDecayEvent(ev); err != nil {
		return fmt.Errorf("record decay event: %w", err)
	}

	e.emitAlert(storagePressureAlert(ownerID, ev.ID, storageBefore, capacityAfter))

	// Score under the owner's current weights so a slider change takes
	// effect on the very next cycle.
	stored, err := e.DB.GetValuationWeights(ownerID)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	weights := Weights{
		Relevance:          stored.Relevance,
		Uniqueness:         stored.Uniqueness,
		Reconstructability: stored.Reconstructability,
	}.Normalize()
	for i := range items {
		items[i].SemanticScore = SemanticScore(
			items[i].ValRelevance, items[i].ValUniqueness, items[i].ValReconstructability, weights)
	}

	transitions := SelectTransitions(items, storageBefore, capacityAfter)

	applied := 0
	freedKB := 0.0
	for i := range transitions {
		t := &transitions[i]
		if err := e.applyTransition(ownerID, ev.ID, t); err != nil {
			log.Printf("scheduler: %s: transition %s: %v", ownerID, t.Item.ID, err)
			continue
		}
		applied++
		freedKB += t.Item.CurrentSizeKB - t.NewSizeKB
	}

	storageAfter := storageBefore - freedKB
	if err := e.DB.UpdateDecayEventTotals(ev.ID, storageAfter, applied); err != nil {
		return fmt.Errorf("finalize decay event: %w", err)
	}

	if err := e.DB.UpdateSimulationProgress(ownerID, newYear, capacityAfter); err != nil {
		return fmt.Errorf("advance clock: %w", err)
	}
	st.CurrentYear = newYear
	st.CurrentCapacityKB = capacityAfter

	e.emitAlert(decayApproachingAlert(ownerID, st))

	e.Bus.Publish(bus.Event{
		Type:    bus.TypeDecayEventCompleted,
		OwnerID: ownerID,
		EventID: ev.ID,
		Year:    newYear,
	})
	log.Printf("scheduler: %s: year %.0f, capacity %.0f -> %.0f KB, storage %.0f -> %.0f KB, %d item(s) degraded",
		ownerID, newYear, ev.CapacityBefore, capacityAfter, storageBefore, storageAfter, applied)
	return nil
}

// applyTransition commits one planned stage advance. Persistence failures
// are retried once; exhausted retries surface to the caller, which logs
// them and moves on to the next item.
func (e *Engine) applyTransition(ownerID string, eventID int64, t *Transition) error {
	err := e.DB.ApplyTransition(t.Item.ID, t.NextStage, t.NewSizeKB)
	if err != nil {
		log.Printf("scheduler: %s: retrying transition %s: %v", ownerID, t.Item.ID, err)
		err = e.DB.ApplyTransition(t.Item.ID, t.NextStage, t.NewSizeKB)
	}
	if err != nil {
		return err
	}

	entry := &store.DegradationLogEntry{
		EventID:       eventID,
		ItemID:        t.Item.ID,
		OwnerID:       ownerID,
		FromStage:     t.Item.Stage,
		ToStage:       t.NextStage,
		Reason:        t.Reason,
		SemanticScore: t.Item.SemanticScore,
		ValRelevance:  t.Item.ValRelevance,
		ValUniqueness: t.Item.ValUniqueness,
		ValRecon:      t.Item.ValReconstructability,
		SizeBeforeKB:  t.Item.CurrentSizeKB,
		SizeAfterKB:   t.NewSizeKB,
	}
	if err := e.DB.AppendDegradationLog(entry); err != nil {
		log.Printf("scheduler: %s: log transition %s: %v", ownerID, t.Item.ID, err)
	}

	e.emitAlert(transitionAlert(ownerID, eventID, t))

	e.Bus.Publish(bus.Event{
		Type:    bus.TypeItemTransitioned,
		OwnerID: ownerID,
		ItemID:  t.Item.ID,
		EventID: eventID,
		Stage:   t.NextStage,
	})

	e.enqueueRefine(ownerID, t.Item.ID, t.NextStage)
	return nil
}
