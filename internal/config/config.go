package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Events    EventsConfig    `yaml:"events"`
	Sheets    SheetsConfig    `yaml:"sheets"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// StoreConfig selects the persistence backend. For the file driver Path is a data file,
// a project file or a workspace directory; for sqlite it is the database path or DSN.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// EventsConfig enables the AMQP publisher when AMQPURL is set.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3847,
		},
		Transport: TransportConfig{Mode: TransportStdio},
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   "timesheet_data.json",
		},
		Log: LogConfig{Level: "info"},
		Events: EventsConfig{
			Exchange: "timesheet.events",
			Queue:    "timesheet.events",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TIMESHEET_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TIMESHEET_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TIMESHEET_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIMESHEET_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	setString(&cfg.Transport.Mode, "TIMESHEET_TRANSPORT")
	setString(&cfg.Store.Driver, "TIMESHEET_STORE_DRIVER")
	setString(&cfg.Store.Path, "TIMESHEET_DATA_PATH")
	setString(&cfg.Log.Level, "TIMESHEET_LOG_LEVEL")
	setString(&cfg.Events.AMQPURL, "TIMESHEET_AMQP_URL")
	setString(&cfg.Events.Exchange, "TIMESHEET_AMQP_EXCHANGE")
	setString(&cfg.Events.Queue, "TIMESHEET_AMQP_QUEUE")
	setString(&cfg.Sheets.CredentialsFile, "GOOGLE_SERVICE_ACCOUNT_FILE")
	setString(&cfg.Sheets.CredentialsJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport mode %q: want stdio or http", c.Transport.Mode)
	}
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("invalid store driver %q: want file or sqlite", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Transport.Mode == TransportHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Events.AMQPURL != "" && (c.Events.Exchange == "" || c.Events.Queue == "") {
		return fmt.Errorf("events exchange and queue are required with an AMQP url")
	}
	return nil
}

// SheetsEnabled reports whether any service account credentials are configured.
func (c Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsFile != "" || c.Sheets.CredentialsJSON != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
