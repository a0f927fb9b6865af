package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/config"
)

var statusOwner string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive and simulation status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusOwner, "owner", "", "Archive owner (defaults to the configured owner)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	owner := statusOwner
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

	st, err := eng.Status(owner)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Printf("owner:        %s\n", owner)
	fmt.Printf("items:        %d active / %d total\n", st.ActiveItems, st.TotalItems)
	fmt.Printf("storage:      %.0f KB\n", st.StorageKB)
	if st.State == nil {
		fmt.Println("simulation:   not initialized")
	} else {
		mode := "paused"
		if st.State.IsRunning {
			mode = "running"
		}
		fmt.Printf("simulation:   year %.0f of %.0f (%s), capacity %.0f KB\n",
			st.State.CurrentYear, st.State.TotalYears, mode, st.State.CurrentCapacityKB)
	}
	fmt.Printf("decay events: %d\n", st.DecayEvents)
	fmt.Printf("alerts:       %d unread\n", st.UnreadAlerts)
	return nil
}
