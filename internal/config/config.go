package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	ServerPort string `yaml:"server_port"`

	// Client settings
	ServerURL string `yaml:"server_url"`

	// OpenTelemetry settings
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
	Environment  string `yaml:"environment"`
}

// Load returns configuration from environment variables with sensible defaults.
func Load() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML config file and then applies environment
// variables on top, so the environment always wins.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerPort:   "8080",
		ServerURL:    "http://localhost:8080",
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "todoapp",
		Environment:  "development",
	}
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.ServerURL = getEnv("TODO_SERVER_URL", c.ServerURL)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.ServiceName = getEnv("OTEL_SERVICE_NAME", c.ServiceName)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
