package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/bus"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/config"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/engine"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/llm"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/server"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

// revalueSweepLimit caps how many unanalyzed items one scheduled sweep sends
// to the valuation provider.
const revalueSweepLimit = 25

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and decay scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if llmClient != nil {
		fmt.Fprintf(os.Stderr, "  llm: %s\n", cfg.LLM.Provider)
	} else {
		fmt.Fprintln(os.Stderr, "  llm: none (deterministic degradation fallbacks)")
	}

	eventBus := bus.New()
	if len(cfg.Kafka.Brokers) > 0 {
		sink := bus.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, eventBus)
		defer sink.Close()
		fmt.Fprintf(os.Stderr, "  kafka: %s topic %s\n",
			strings.Join(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
	}

	eng := engine.New(db, llmClient, eventBus, engine.SimulationDefaults{
		StartCapacityKB:    cfg.Simulation.StartCapacityKB,
		DecayPercent:       cfg.Simulation.DecayPercent,
		DecayIntervalYears: cfg.Simulation.DecayIntervalYears,
		TotalYears:         cfg.Simulation.TotalYears,
		Tick:               time.Duration(cfg.Simulation.TickMillis) * time.Millisecond,
	})
	defer eng.Stop()

	// Simulations that were running when the last process died pick back up.
	if err := eng.ResumeRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: resume simulations: %v\n", err)
	}

	// Out-of-band valuation sweep. Items the provider has never scored get
	// picked up on a schedule instead of blocking decay cycles.
	if llmClient != nil && cfg.LLM.RevalueSchedule != "" {
		owner := cfg.Simulation.DefaultOwner
		sched := cron.New()
		_, err := sched.AddFunc(cfg.LLM.RevalueSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := eng.RevalueStale(ctx, owner, revalueSweepLimit); err != nil {
				fmt.Fprintf(os.Stderr, "revalue sweep: %v\n", err)
			}
		})
		if err != nil {
			return fmt.Errorf("revalue schedule %q: %w", cfg.LLM.RevalueSchedule, err)
		}
		sched.Start()
		defer sched.Stop()
		fmt.Fprintf(os.Stderr, "  revalue: %s\n", cfg.LLM.RevalueSchedule)
	}

	srv := server.New(db, eng, VersionString(), cfg.Simulation.DefaultOwner)
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "entropic serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
