package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/config"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/engine"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

var (
	simulateOwner string
	simulateReset bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the decay timeline to completion offline",
	Long: "Steps the decay simulation cycle by cycle until the horizon, printing each\n" +
		"decay event. Runs against the archive directly; stop any live server first.",
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateOwner, "owner", "", "Archive owner (defaults to the configured owner)")
	simulateCmd.Flags().BoolVar(&simulateReset, "reset", false, "Reset the simulation and restore items before running")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	owner := simulateOwner
	if owner == "" {
		owner = cfg.Simulation.DefaultOwner
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng := newEngine(db, nil, cfg)
	defer eng.Stop()

	if simulateReset {
		if err := eng.ResetSimulation(owner); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println("simulation reset, items restored to full fidelity")
	}

	cycles := 0
	for {
		err := eng.StepSimulation(owner)
		if errors.Is(err, engine.ErrSimulationComplete) {
			break
		}
		if errors.Is(err, engine.ErrSchedulerConflict) {
			return fmt.Errorf("a live decay cycle is in progress; pause the running simulation first")
		}
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		cycles++

		events, err := db.ListDecayEvents(owner, 1)
		if err != nil {
			return fmt.Errorf("read decay event: %w", err)
		}
		if len(events) > 0 {
			ev := events[0]
			fmt.Printf("year %3.0f  capacity %12.0f KB  storage %12.0f KB  degraded %d\n",
				ev.Year, ev.CapacityAfter, ev.StorageAfter, ev.ItemsAffected)
		}
	}

	if cycles == 0 {
		fmt.Println("simulation already at its horizon; use --reset to run again")
		return nil
	}

	return printOutcome(db, eng, owner)
}

func printOutcome(db *store.DB, eng *engine.Engine, owner string) error {
	st, err := eng.Status(owner)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	items, err := db.ListItems(owner)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	counts := map[string]int{}
	for i := range items {
		counts[items[i].Stage]++
	}

	fmt.Println()
	if st.State != nil {
		fmt.Printf("## Outcome after %.0f simulated years\n\n", st.State.CurrentYear)
		fmt.Printf("cycles:   %d decay events\n", st.DecayEvents)
		fmt.Printf("storage:  %.0f KB of %.0f KB capacity\n", st.StorageKB, st.State.CurrentCapacityKB)
	}
	fmt.Printf("items:    %d full, %d compressed, %d summarized, %d minimal, %d deleted\n",
		counts["full"], counts["compressed"], counts["summarized"], counts["minimal"], counts["deleted"])

	active, err := db.ListActiveItems(owner)
	if err != nil {
		return fmt.Errorf("list active: %w", err)
	}
	if len(active) > 0 {
		fmt.Println("\nhighest-value survivors:")
		n := 5
		if len(active) < n {
			n = len(active)
		}
		// Active items sort ascending by score, so the winners are at the tail.
		for i := 0; i < n; i++ {
			it := active[len(active)-1-i]
			fmt.Printf("  %5.1f  %s (%s)\n", it.SemanticScore, it.Title, it.Stage)
		}
	}
	return nil
}
