package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/config"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/engine"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/llm"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "entropic",
	Short: "Archival storage under entropic decay",
	Long: "Entropic keeps an archive alive under a shrinking storage budget: capacity\n" +
		"decays on a simulated clock and the least valuable items lose fidelity first.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statusCmd)
}

// openDB loads the configured database for CLI commands.
func openDB(cfg config.Config) (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}

// newEngine builds an engine seeded from the config's simulation defaults.
func newEngine(db *store.DB, client llm.Client, cfg config.Config) *engine.Engine {
	return engine.New(db, client, nil, engine.SimulationDefaults{
		StartCapacityKB:    cfg.Simulation.StartCapacityKB,
		DecayPercent:       cfg.Simulation.DecayPercent,
		DecayIntervalYears: cfg.Simulation.DecayIntervalYears,
		TotalYears:         cfg.Simulation.TotalYears,
		Tick:               time.Duration(cfg.Simulation.TickMillis) * time.Millisecond,
	})
}
