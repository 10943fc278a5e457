package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	URLs      URLConfig       `yaml:"urls"`
	Render    RenderConfig    `yaml:"render"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres". The node store and user directory
	// always live in SQLite; postgres only holds activity events.
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	SeedPath string `yaml:"seed_path"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultUser acts for every request when auth is disabled.
	DefaultUser string `yaml:"default_user"`
}

type URLConfig struct {
	BaseURL string `yaml:"base_url"`
}

type RenderConfig struct {
	RequirePNG bool `yaml:"require_png"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether published events are mirrored to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "downloadactivity.db",
		},
		Log: LogConfig{
			Level:    "info",
			MaxBytes: 10 << 20,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		URLs: URLConfig{
			BaseURL: "http://localhost:8080",
		},
		Kafka: KafkaConfig{
			Topic: "files.download_activity",
		},
	}

	if path := os.Getenv("DLACTIVITY_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("DLACTIVITY_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("DLACTIVITY_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DLACTIVITY_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("DLACTIVITY_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("DLACTIVITY_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if dsn := os.Getenv("DLACTIVITY_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if seed := os.Getenv("DLACTIVITY_SEED_PATH"); seed != "" {
		cfg.DB.SeedPath = seed
	}
	if level := os.Getenv("DLACTIVITY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logFile := os.Getenv("DLACTIVITY_LOG_FILE"); logFile != "" {
		cfg.Log.File = logFile
	}
	if mode := os.Getenv("DLACTIVITY_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("DLACTIVITY_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DLACTIVITY_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if base := os.Getenv("DLACTIVITY_BASE_URL"); base != "" {
		cfg.URLs.BaseURL = base
	}
	if brokers := os.Getenv("DLACTIVITY_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	if topic := os.Getenv("DLACTIVITY_KAFKA_TOPIC"); topic != "" {
		cfg.Kafka.Topic = topic
	}
	if png := os.Getenv("DLACTIVITY_REQUIRE_PNG"); png != "" {
		v, err := strconv.ParseBool(png)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DLACTIVITY_REQUIRE_PNG: %w", err)
		}
		cfg.Render.RequirePNG = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	return nil
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
