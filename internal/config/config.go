package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultUDPPort     = 38899
	defaultTimeout     = 2 * time.Second
	defaultDelay       = 100 * time.Millisecond
	defaultConcurrency = 1
	defaultHTTPAddr    = ":8080"
)

// Config holds the fleet server and CLI settings.
type Config struct {
	Lights           []string      `yaml:"lights"`
	UDPPort          int           `yaml:"udp_port"`
	Timeout          time.Duration `yaml:"timeout"`
	Delay            time.Duration `yaml:"delay"`
	Concurrency      int           `yaml:"concurrency"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	HTTPAddr         string        `yaml:"http_addr"`
	DatabaseURL      string        `yaml:"database_url"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		UDPPort:     defaultUDPPort,
		Timeout:     defaultTimeout,
		Delay:       defaultDelay,
		Concurrency: defaultConcurrency,
		HTTPAddr:    defaultHTTPAddr,
	}
}

// Load reads defaults, then the YAML file named by WIZ_CONFIG, then env
// overrides, and validates the result.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("WIZ_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if lights := splitCSV(os.Getenv("WIZ_LIGHTS")); len(lights) > 0 {
		cfg.Lights = lights
	}
	cfg.UDPPort = getenvIntDefault("WIZ_UDP_PORT", cfg.UDPPort)
	cfg.Timeout = getenvDuration("WIZ_TIMEOUT", cfg.Timeout)
	cfg.Delay = getenvDuration("WIZ_DELAY", cfg.Delay)
	cfg.Concurrency = getenvIntDefault("WIZ_CONCURRENCY", cfg.Concurrency)
	cfg.OperationTimeout = getenvDuration("WIZ_OPERATION_TIMEOUT", cfg.OperationTimeout)
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))

	return cfg, cfg.Validate()
}

// Validate checks the light addresses and numeric bounds.
func (c Config) Validate() error {
	var errs []error
	for _, light := range c.Lights {
		if net.ParseIP(light) == nil {
			errs = append(errs, fmt.Errorf("config: light %q is not an IP address", light))
		}
	}
	if c.UDPPort < 1 || c.UDPPort > 65535 {
		errs = append(errs, fmt.Errorf("config: udp port %d out of range", c.UDPPort))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("config: timeout must be positive"))
	}
	if c.Delay < 0 {
		errs = append(errs, errors.New("config: delay must not be negative"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("config: concurrency must be at least 1"))
	}
	if c.OperationTimeout < 0 {
		errs = append(errs, errors.New("config: operation timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
