package cfg

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Engine identifiers for ConnectionConfig.Engine
const (
	EngineMySQL  = "mysql"
	EngineSQLite = "sqlite3"
)

// ConnectionConfig describes one logical connection type (e.g. "master",
// "slave"). Immutable once the connection handle has been created.
type ConnectionConfig struct {
	Type     string `toml:"-"` // section key, filled in by Load
	Engine   string `toml:"engine"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Pass     string `toml:"pass"`
	Prefix   string `toml:"prefix"`
	Charset  string `toml:"charset"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// DiagnosticsConfiguration controls per-statement query logging.
// LogQueries holds glob patterns matched against query identifiers
// (e.g. "member.*"); only matching executions reach the query log sink.
type DiagnosticsConfiguration struct {
	LogQueries []string `toml:"log_queries"`
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool `toml:"enabled"`
}

// Configuration is the main configuration structure
type Configuration struct {
	QueryDir      string `toml:"query_dir"`       // root directory for query templates
	QueryCacheLen int    `toml:"query_cache_len"` // compiled descriptor cache size

	Connections map[string]ConnectionConfig `toml:"connections"`
	Logging     LoggingConfiguration        `toml:"logging"`
	Diagnostics DiagnosticsConfiguration    `toml:"diagnostics"`
	Prometheus  PrometheusConfiguration     `toml:"prometheus"`
}

// Default returns a configuration populated with defaults.
func Default() *Configuration {
	return &Configuration{
		QueryDir:      ".",
		QueryCacheLen: 512,
		Connections:   map[string]ConnectionConfig{},
		Logging: LoggingConfiguration{
			Verbose: false,
			Format:  "console",
		},
		Diagnostics: DiagnosticsConfiguration{},
		Prometheus: PrometheusConfiguration{
			Enabled: false,
		},
	}
}

// Load loads configuration from a TOML file on top of the defaults.
func Load(configPath string) (*Configuration, error) {
	config := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, config); err != nil {
				return nil, fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Stamp the section key into each connection so handles know their type
	for name, conn := range config.Connections {
		conn.Type = name
		if conn.Engine == "" {
			conn.Engine = EngineMySQL
		}
		config.Connections[name] = conn
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Connection returns the configuration registered for a logical type.
func (c *Configuration) Connection(connType string) (ConnectionConfig, bool) {
	conn, ok := c.Connections[connType]
	return conn, ok
}

// Validate checks configuration for errors
func (c *Configuration) Validate() error {
	if c.QueryCacheLen < 1 {
		return fmt.Errorf("query cache length must be >= 1")
	}

	for name, conn := range c.Connections {
		switch conn.Engine {
		case EngineMySQL:
			if conn.Host == "" {
				return fmt.Errorf("connection %s: host is required", name)
			}
			if conn.Port < 0 || conn.Port > 65535 {
				return fmt.Errorf("connection %s: invalid port: %d", name, conn.Port)
			}
			if conn.Database == "" {
				return fmt.Errorf("connection %s: database is required", name)
			}
		case EngineSQLite:
			if conn.Database == "" {
				return fmt.Errorf("connection %s: database path is required", name)
			}
		default:
			return fmt.Errorf("connection %s: unknown engine: %s", name, conn.Engine)
		}
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	return nil
}

// ConfigureLogging applies the logging configuration to the global logger.
func (c *Configuration) ConfigureLogging() {
	if c.Logging.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if c.Logging.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
