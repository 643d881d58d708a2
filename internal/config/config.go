package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Pipeline PipelineConfig `json:"pipeline"`
	Logging  LoggingConfig  `json:"logging"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// StorageConfig selects where report artifacts are persisted
type StorageConfig struct {
	Backend   string `json:"backend"` // "local" or "s3"
	LocalRoot string `json:"local_root"`
	S3Region  string `json:"s3_region"`
	S3Bucket  string `json:"s3_bucket"`
}

// PipelineConfig holds pipeline timeouts
type PipelineConfig struct {
	NarrativeTimeoutSeconds int `json:"narrative_timeout_seconds"`
	DeliveryTimeoutSeconds  int `json:"delivery_timeout_seconds"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "incident_reports",
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			Backend:   "local",
			LocalRoot: "reports",
		},
		Pipeline: PipelineConfig{
			NarrativeTimeoutSeconds: 60,
			DeliveryTimeoutSeconds:  30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if root := os.Getenv("STORAGE_LOCAL_ROOT"); root != "" {
		config.Storage.LocalRoot = root
	}
	if region := os.Getenv("STORAGE_S3_REGION"); region != "" {
		config.Storage.S3Region = region
	}
	if bucket := os.Getenv("STORAGE_S3_BUCKET"); bucket != "" {
		config.Storage.S3Bucket = bucket
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// NarrativeTimeout returns the narrative stage timeout as a duration.
func (c *PipelineConfig) NarrativeTimeout() time.Duration {
	return time.Duration(c.NarrativeTimeoutSeconds) * time.Second
}

// DeliveryTimeout returns the delivery stage timeout as a duration.
func (c *PipelineConfig) DeliveryTimeout() time.Duration {
	return time.Duration(c.DeliveryTimeoutSeconds) * time.Second
}
