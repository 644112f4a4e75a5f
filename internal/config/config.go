package config

import "time"

type Config interface {
	Port() string
	RootDir() string

	ReadTimeout() time.Duration
	MaxConnections() int64
	MaxConnectionsPerHost() int64

	MetricsEnabled() bool
	MetricsPort() string

	LogLevel() string
	Development() bool

	// Override replaces the listen port and resource root when the
	// arguments are non-empty. Command-line flags win over the environment.
	Override(port, rootDir string)
}

func MustLoad() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) Port() string                 { return c.port }
func (c *config) RootDir() string              { return c.rootDir }
func (c *config) ReadTimeout() time.Duration   { return c.readTimeout }
func (c *config) MaxConnections() int64        { return c.maxConnections }
func (c *config) MaxConnectionsPerHost() int64 { return c.maxConnectionsPerHost }
func (c *config) MetricsEnabled() bool         { return c.metricsEnabled }
func (c *config) MetricsPort() string          { return c.metricsPort }
func (c *config) LogLevel() string             { return c.logLevel }
func (c *config) Development() bool            { return c.development }

func (c *config) Override(port, rootDir string) {
	if port != "" {
		c.port = port
	}
	if rootDir != "" {
		c.rootDir = rootDir
	}
}
