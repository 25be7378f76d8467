// Package config loads Warden's configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Warden.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Logging  LoggingConfig  `yaml:"logging"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// SiteConfig identifies the deployment.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelaySeconds int `yaml:"initial_delay"`
	MaxDelaySeconds     int `yaml:"max_delay"`
}

// InfluxDBConfig contains the optional time-series archive settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// SMTPConfig contains outbound mail gateway settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// IngestConfig contains tunables for the ingest pipeline. The fields are
// parsed from YAML but no component reads them; the pipeline always uses
// the constants defined in the persistence, mailqueue, threshold,
// directory and coordinator packages.
type IngestConfig struct {
	BatchSize             int `yaml:"batch_size"`
	BatchIntervalMS       int `yaml:"batch_interval_ms"`
	MaxQueueSize          int `yaml:"max_queue_size"`
	MaxMailRetries        int `yaml:"max_mail_retries"`
	MailRetryDelayMS      int `yaml:"mail_retry_delay_ms"`
	ThresholdCooldownMS   int `yaml:"threshold_cooldown_ms"`
	RecipientCacheTTLSec  int `yaml:"recipient_cache_ttl_seconds"`
	ThresholdCacheTTLSec  int `yaml:"threshold_cache_ttl_seconds"`
	ThresholdFlushSec     int `yaml:"threshold_cache_flush_seconds"`
	MaxSamplePayloadBytes int `yaml:"max_sample_payload_bytes"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Order: hardcoded defaults, then YAML file, then WARDEN_* env vars.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{ID: "site-001", Name: "Warden"},
		Database: DatabaseConfig{
			Path:        "./data/warden.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "warden-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelaySeconds: 1,
				MaxDelaySeconds:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern WARDEN_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WARDEN_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WARDEN_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WARDEN_MQTT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = p
		}
	}
	if v := os.Getenv("WARDEN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WARDEN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("WARDEN_SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("WARDEN_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("WARDEN_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MQTT.Broker.Host) == "" {
		return fmt.Errorf("mqtt.broker.host cannot be empty")
	}
	if c.MQTT.Broker.Port <= 0 {
		return fmt.Errorf("mqtt.broker.port must be positive")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.InfluxDB.Enabled {
		if strings.TrimSpace(c.InfluxDB.URL) == "" {
			return fmt.Errorf("influxdb.url cannot be empty when influxdb.enabled is true")
		}
		if strings.TrimSpace(c.InfluxDB.Bucket) == "" {
			return fmt.Errorf("influxdb.bucket cannot be empty when influxdb.enabled is true")
		}
	}
	return nil
}
