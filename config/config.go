package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full application configuration. Values come from the
// environment (optionally seeded from a .env file); a yaml file may be used
// instead, see LoadFile.
type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Sync     SyncConfig     `yaml:"sync"`
}

// PostgresConfig represents the configuration needed to connect to a PostgreSQL database
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost" yaml:"host"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432" yaml:"port"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres" yaml:"user"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"postgres" yaml:"password"`
	DBName   string `envconfig:"POSTGRES_NAME" default:"postgres" yaml:"dbname"`
}

func (pc *PostgresConfig) GetConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// SyncConfig holds the scheduling knobs of the synchronization dispatcher.
type SyncConfig struct {
	// Workers bounds how many credentials are synchronized in parallel.
	Workers int `envconfig:"SYNC_WORKERS" default:"4" yaml:"workers"`
	// BaseCadenceMinutes is the scheduling tick. Daily endpoints are gated
	// on runs elapsed relative to this cadence.
	BaseCadenceMinutes int `envconfig:"SYNC_BASE_CADENCE_MINUTES" default:"30" yaml:"base_cadence_minutes"`
	// MetricsAddr is the listen address of the metrics/health endpoint.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090" yaml:"metrics_addr"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is picked up when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing environment config: %w", err)
	}
	return cfg, nil
}
