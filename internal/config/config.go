package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Printers PrintersConfig `yaml:"printers"`
	Queue    QueueConfig    `yaml:"queue"`
	Lease    LeaseConfig    `yaml:"lease"`
	Notify   NotifyConfig   `yaml:"notify"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
	// OrderStore selects where order documents live: "sqlite" or "dynamodb".
	OrderStore  string `yaml:"order_store"`
	OrdersTable string `yaml:"orders_table"`
}

type PrintersConfig struct {
	// APIURLs is the raw printer base-URL list, see core.ParsePrinterURLs.
	APIURLs             string        `yaml:"api_urls"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	ConnectionTimeout   time.Duration `yaml:"connection_timeout"`
	OfflineAfter        time.Duration `yaml:"offline_after"`
}

type QueueConfig struct {
	MaxPrintAttempts int           `yaml:"max_print_attempts"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	RetryQueueSize   int           `yaml:"retry_queue_size"`
	WorkerCount      int           `yaml:"worker_count"`
}

type LeaseConfig struct {
	StaleAfter    time.Duration `yaml:"stale_after"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type NotifyConfig struct {
	URLs        []string      `yaml:"urls"`
	Secret      string        `yaml:"secret"`
	Timeout     time.Duration `yaml:"timeout"`
	RetryCount  int           `yaml:"retry_count"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	WorkerCount int           `yaml:"worker_count"`
	QueueSize   int           `yaml:"queue_size"`
}

type ArchiveConfig struct {
	Path     string        `yaml:"path"`
	Days     int           `yaml:"days"`
	Interval time.Duration `yaml:"interval"`
}

type AuthConfig struct {
	WorkerToken   string        `yaml:"worker_token"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/printdesk.db",
			OrderStore:  "sqlite",
			OrdersTable: "orders",
		},
		Printers: PrintersConfig{
			HealthCheckInterval: 30 * time.Second,
			ConnectionTimeout:   10 * time.Second,
			OfflineAfter:        2 * time.Minute,
		},
		Queue: QueueConfig{
			MaxPrintAttempts: 3,
			MaxRetries:       3,
			RetryDelay:       10 * time.Second,
			RetryQueueSize:   100,
			WorkerCount:      2,
		},
		Lease: LeaseConfig{
			StaleAfter:    2 * time.Minute,
			SweepInterval: 0,
		},
		Notify: NotifyConfig{
			Timeout:     10 * time.Second,
			RetryCount:  3,
			RetryDelay:  5 * time.Second,
			WorkerCount: 3,
			QueueSize:   100,
		},
		Archive: ArchiveConfig{
			Path:     "./data/archives",
			Days:     30,
			Interval: 24 * time.Hour,
		},
		Auth: AuthConfig{
			TokenDuration: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at configPath (a missing file is not an error),
// then applies environment overrides.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRINTDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PRINTDESK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PRINTDESK_ORDER_STORE"); v != "" {
		cfg.Database.OrderStore = v
	}

	if v := os.Getenv("ORDERS_TABLE"); v != "" {
		cfg.Database.OrdersTable = v
	}

	if v, ok := os.LookupEnv("PRINTER_API_URLS"); ok {
		cfg.Printers.APIURLs = v
	}

	if v := os.Getenv("PRINTDESK_WORKER_TOKEN"); v != "" {
		cfg.Auth.WorkerToken = v
	}

	if v := os.Getenv("PRINTDESK_WEBHOOK_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		cfg.Notify.URLs = urls
	}

	if v := os.Getenv("PRINTDESK_WEBHOOK_SECRET"); v != "" {
		cfg.Notify.Secret = v
	}

	if v := os.Getenv("PRINTDESK_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}

	if v := os.Getenv("PRINTDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	switch c.Database.OrderStore {
	case "sqlite":
	case "dynamodb":
		if c.Database.OrdersTable == "" {
			return fmt.Errorf("orders table is required for the dynamodb order store")
		}
	default:
		return fmt.Errorf("invalid order store: %s (valid: sqlite, dynamodb)", c.Database.OrderStore)
	}

	if c.Printers.HealthCheckInterval < 0 {
		return fmt.Errorf("health check interval must be non-negative")
	}

	if c.Printers.ConnectionTimeout <= 0 {
		return fmt.Errorf("connection timeout must be positive")
	}

	if c.Printers.OfflineAfter < 0 {
		return fmt.Errorf("offline threshold must be non-negative")
	}

	if c.Queue.MaxPrintAttempts < 1 {
		return fmt.Errorf("max print attempts must be at least 1")
	}

	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}

	if c.Queue.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative")
	}

	if c.Queue.RetryQueueSize < 1 {
		return fmt.Errorf("retry queue size must be at least 1")
	}

	if c.Queue.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	if c.Lease.StaleAfter <= 0 {
		return fmt.Errorf("lease stale threshold must be positive")
	}

	if c.Lease.SweepInterval < 0 {
		return fmt.Errorf("lease sweep interval must be non-negative")
	}

	if c.Archive.Days < 1 {
		return fmt.Errorf("archive days must be at least 1")
	}

	if c.Archive.Interval < 0 {
		return fmt.Errorf("archive interval must be non-negative")
	}

	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("token duration must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":  true,
		"text":  true,
		"plain": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text, plain)", c.Logging.Format)
	}

	return nil
}
