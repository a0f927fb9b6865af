package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all entropic configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Simulation SimulationConfig `yaml:"simulation"`
	LLM        LLMConfig        `yaml:"llm"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SimulationConfig seeds new per-owner simulations. Existing simulation rows
// keep the parameters they were created with.
type SimulationConfig struct {
	DefaultOwner       string  `yaml:"default_owner"`
	StartCapacityKB    float64 `yaml:"start_capacity_kb"`
	DecayPercent       float64 `yaml:"decay_percent"`
	DecayIntervalYears float64 `yaml:"decay_interval_years"`
	TotalYears         float64 `yaml:"total_years"`
	TickMillis         int     `yaml:"tick_millis"` // wall-clock ms per decay interval when auto-running
}

type LLMConfig struct {
	Provider        string `yaml:"provider"` // "anthropic", "ollama", "none"
	Model           string `yaml:"model"`
	AnthropicKey    string `yaml:"anthropic_key"`
	OllamaURL       string `yaml:"ollama_url"`
	OllamaModel     string `yaml:"ollama_model"`
	RevalueSchedule string `yaml:"revalue_schedule"` // cron spec for the valuation sweep
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37800,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Simulation: SimulationConfig{
			DefaultOwner:       "default",
			StartCapacityKB:    1_000_000,
			DecayPercent:       5,
			DecayIntervalYears: 2,
			TotalYears:         60,
			TickMillis:         5000,
		},
		LLM: LLMConfig{
			Provider:        "none",
			RevalueSchedule: "@every 10m",
		},
		Kafka: KafkaConfig{
			Topic: "entropic.events",
		},
	}
}

// DefaultPath returns ~/.entropic/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".entropic", "config.yaml")
}

// Load reads the config file at path (or the default location when path is
// empty), applies environment overrides, and validates. A missing file is
// not an error; defaults plus environment carry the day.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ENTROPIC_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	envOverride(&cfg.Server.Bind, "ENTROPIC_BIND")
	if err := envOverrideInt(&cfg.Server.Port, "ENTROPIC_PORT"); err != nil {
		return cfg, err
	}
	envOverride(&cfg.Database.Path, "ENTROPIC_DB_PATH")
	envOverride(&cfg.Simulation.DefaultOwner, "ENTROPIC_OWNER")
	if err := envOverrideFloat(&cfg.Simulation.StartCapacityKB, "ENTROPIC_START_CAPACITY_KB"); err != nil {
		return cfg, err
	}
	if err := envOverrideFloat(&cfg.Simulation.DecayPercent, "ENTROPIC_DECAY_PERCENT"); err != nil {
		return cfg, err
	}
	if err := envOverrideFloat(&cfg.Simulation.DecayIntervalYears, "ENTROPIC_DECAY_INTERVAL_YEARS"); err != nil {
		return cfg, err
	}
	if err := envOverrideFloat(&cfg.Simulation.TotalYears, "ENTROPIC_TOTAL_YEARS"); err != nil {
		return cfg, err
	}
	if err := envOverrideInt(&cfg.Simulation.TickMillis, "ENTROPIC_TICK_MILLIS"); err != nil {
		return cfg, err
	}
	envOverride(&cfg.LLM.Provider, "ENTROPIC_LLM_PROVIDER")
	envOverride(&cfg.LLM.Model, "ENTROPIC_LLM_MODEL")
	envOverride(&cfg.LLM.AnthropicKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLM.OllamaURL, "OLLAMA_URL")
	envOverride(&cfg.LLM.OllamaModel, "OLLAMA_MODEL")
	envOverride(&cfg.LLM.RevalueSchedule, "ENTROPIC_REVALUE_SCHEDULE")
	if brokers := os.Getenv("ENTROPIC_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			b = strings.TrimSpace(b)
			if b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	envOverride(&cfg.Kafka.Topic, "ENTROPIC_KAFKA_TOPIC")

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Simulation.StartCapacityKB <= 0 {
		return fmt.Errorf("start_capacity_kb must be positive, got %f", c.Simulation.StartCapacityKB)
	}
	if c.Simulation.DecayPercent < 0 || c.Simulation.DecayPercent >= 100 {
		return fmt.Errorf("decay_percent must be in [0,100), got %f", c.Simulation.DecayPercent)
	}
	if c.Simulation.DecayIntervalYears <= 0 {
		return fmt.Errorf("decay_interval_years must be positive, got %f", c.Simulation.DecayIntervalYears)
	}
	if c.Simulation.TotalYears < c.Simulation.DecayIntervalYears {
		return fmt.Errorf("total_years %f is shorter than one decay interval %f",
			c.Simulation.TotalYears, c.Simulation.DecayIntervalYears)
	}
	if c.Simulation.TickMillis < 100 {
		return fmt.Errorf("tick_millis must be at least 100, got %d", c.Simulation.TickMillis)
	}
	switch c.LLM.Provider {
	case "anthropic", "ollama", "none", "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
