package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 37800 {
		t.Errorf("port = %d, want 37800", cfg.Server.Port)
	}
	if cfg.Simulation.StartCapacityKB != 1_000_000 {
		t.Errorf("start_capacity_kb = %f, want 1000000", cfg.Simulation.StartCapacityKB)
	}
	if cfg.Simulation.DecayPercent != 5 {
		t.Errorf("decay_percent = %f, want 5", cfg.Simulation.DecayPercent)
	}
	if cfg.Simulation.DecayIntervalYears != 2 {
		t.Errorf("decay_interval_years = %f, want 2", cfg.Simulation.DecayIntervalYears)
	}
	if cfg.Simulation.TotalYears != 60 {
		t.Errorf("total_years = %f, want 60", cfg.Simulation.TotalYears)
	}
	if cfg.LLM.Provider != "none" {
		t.Errorf("llm provider = %q, want none", cfg.LLM.Provider)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:37800" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:37800", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.DefaultOwner != "default" {
		t.Errorf("default_owner = %q, want default", cfg.Simulation.DefaultOwner)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  bind: 0.0.0.0
  port: 9000
simulation:
  default_owner: archive-team
  start_capacity_kb: 500000
  decay_percent: 10
  decay_interval_years: 5
  total_years: 40
  tick_millis: 2000
llm:
  provider: ollama
  ollama_model: llama3.2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Simulation.DefaultOwner != "archive-team" {
		t.Errorf("default_owner = %q, want archive-team", cfg.Simulation.DefaultOwner)
	}
	if cfg.Simulation.DecayPercent != 10 {
		t.Errorf("decay_percent = %f, want 10", cfg.Simulation.DecayPercent)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("llm provider = %q, want ollama", cfg.LLM.Provider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENTROPIC_PORT", "8123")
	t.Setenv("ENTROPIC_OWNER", "env-owner")
	t.Setenv("ENTROPIC_DECAY_PERCENT", "7.5")
	t.Setenv("ENTROPIC_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("port = %d, want 8123", cfg.Server.Port)
	}
	if cfg.Simulation.DefaultOwner != "env-owner" {
		t.Errorf("default_owner = %q, want env-owner", cfg.Simulation.DefaultOwner)
	}
	if cfg.Simulation.DecayPercent != 7.5 {
		t.Errorf("decay_percent = %f, want 7.5", cfg.Simulation.DecayPercent)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("kafka brokers = %v, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"ENTROPIC_PORT": "99999"}},
		{"negative capacity", map[string]string{"ENTROPIC_START_CAPACITY_KB": "-1"}},
		{"decay percent too high", map[string]string{"ENTROPIC_DECAY_PERCENT": "100"}},
		{"zero interval", map[string]string{"ENTROPIC_DECAY_INTERVAL_YEARS": "0"}},
		{"interval longer than total", map[string]string{"ENTROPIC_DECAY_INTERVAL_YEARS": "90"}},
		{"unknown provider", map[string]string{"ENTROPIC_LLM_PROVIDER": "tarot"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
