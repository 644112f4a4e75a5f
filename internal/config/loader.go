package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	port    string
	rootDir string

	readTimeout           time.Duration
	maxConnections        int64
	maxConnectionsPerHost int64

	metricsEnabled bool
	metricsPort    string

	logLevel    string
	development bool
}

func parse() (*config, error) {
	port, err := parsePort("PORT", "8000")
	if err != nil {
		return nil, err
	}

	rootDir := getenv("ROOT_DIR", "public_html")

	readTimeout, err := parseReadTimeout()
	if err != nil {
		return nil, err
	}

	maxConnections, err := parseLimit("MAX_CONNECTIONS")
	if err != nil {
		return nil, err
	}

	maxConnectionsPerHost, err := parseLimit("MAX_CONNECTIONS_PER_HOST")
	if err != nil {
		return nil, err
	}

	metricsEnabled := getenvBool("METRICS_ENABLED", false)
	metricsPort, err := parsePort("METRICS_PORT", "9100")
	if err != nil {
		return nil, err
	}
	if metricsEnabled && metricsPort == port {
		return nil, fmt.Errorf("METRICS_PORT must differ from PORT")
	}

	logLevel, err := parseLogLevel()
	if err != nil {
		return nil, err
	}

	return &config{
		port:                  port,
		rootDir:               rootDir,
		readTimeout:           readTimeout,
		maxConnections:        maxConnections,
		maxConnectionsPerHost: maxConnectionsPerHost,
		metricsEnabled:        metricsEnabled,
		metricsPort:           metricsPort,
		logLevel:              logLevel,
		development:           getenvBool("DEVELOPMENT", false),
	}, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func parsePort(key, def string) (string, error) {
	raw := getenv(key, def)
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || n == 0 {
		return "", fmt.Errorf("invalid %s value %q", key, raw)
	}
	return raw, nil
}

func parseReadTimeout() (time.Duration, error) {
	raw := getenv("READ_TIMEOUT", "60s")
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("READ_TIMEOUT must not be negative")
	}
	return d, nil
}

// parseLimit reads a connection limit where 0 means unbounded.
func parseLimit(key string) (int64, error) {
	raw := getenv(key, "0")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return n, nil
}

func parseLogLevel() (string, error) {
	level := strings.ToLower(getenv("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
		return level, nil
	default:
		return "", fmt.Errorf("invalid LOG_LEVEL value")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val == "true"
}
