// Package config provides configuration management for the research desk.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/research-desk/internal/domain"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RESEARCHDESK"

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the research desk.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database selects and configures the provider store.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Search contains dispatcher-wide search settings.
	Search SearchConfig `mapstructure:"search"`
	// Retrievers holds per-retriever overrides keyed by slug.
	Retrievers map[string]RetrieverConfig `mapstructure:"retrievers"`
	// Agents contains LLM agent settings.
	Agents AgentsConfig `mapstructure:"agents"`
	// Keys holds provider API keys used to seed the store, keyed by slug.
	// Loaded from RESEARCHDESK_KEYS_<SLUG> only.
	Keys map[string]string `mapstructure:"-"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP API port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response. It must
	// exceed the agent timeout or long generations are cut off.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password, loaded from RESEARCHDESK_DATABASE_PASSWORD only.
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationAutoRun applies pending migrations on startup.
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// SearchConfig holds settings shared by all retrievers.
type SearchConfig struct {
	// Timeout bounds one dispatched search across all of its queries.
	Timeout time.Duration `mapstructure:"timeout"`
	// DefaultMaxResults bounds results per query when a request gives none.
	DefaultMaxResults int `mapstructure:"default_max_results"`
	// DefaultRetriever serves generic single-query helpers.
	DefaultRetriever string `mapstructure:"default_retriever"`
	// UserAgent is sent with every provider request.
	UserAgent string `mapstructure:"user_agent"`
	// Mailto joins the polite pools of Crossref and OpenAlex.
	Mailto string `mapstructure:"mailto"`
}

// RetrieverConfig overrides the built-in settings of one retriever.
// Zero values keep the adapter's own default.
type RetrieverConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Burst       int           `mapstructure:"burst"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	MaxResults  int           `mapstructure:"max_results"`
}

// AgentsConfig holds LLM agent settings.
type AgentsConfig struct {
	// Timeout bounds one provider call.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxAttempts caps calls for transient failures (1 disables retries).
	MaxAttempts int `mapstructure:"max_attempts"`
	// RetryDelay is the base backoff between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// DefaultSystemPrompt replaces the built-in preamble when set.
	DefaultSystemPrompt string `mapstructure:"default_system_prompt"`
	// OpenAI contains OpenAI endpoint settings.
	OpenAI AgentEndpoint `mapstructure:"openai"`
	// Claude contains Anthropic endpoint settings.
	Claude AgentEndpoint `mapstructure:"claude"`
	// Gemini contains Google endpoint settings.
	Gemini AgentEndpoint `mapstructure:"gemini"`
}

// AgentEndpoint overrides where an agent sends requests.
type AgentEndpoint struct {
	BaseURL string `mapstructure:"base_url"`
}

// BaseURLs returns the configured endpoint overrides keyed by agent slug.
func (c AgentsConfig) BaseURLs() map[string]string {
	out := make(map[string]string, 3)
	for slug, ep := range map[string]AgentEndpoint{
		domain.AgentOpenAI: c.OpenAI,
		domain.AgentClaude: c.Claude,
		domain.AgentGemini: c.Gemini,
	} {
		if ep.BaseURL != "" {
			out[slug] = ep.BaseURL
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// RetrieverSlugs lists every retriever that receives configuration defaults.
var RetrieverSlugs = []string{
	domain.RetrieverArXiv,
	domain.RetrieverCrossref,
	domain.RetrieverDBLP,
	domain.RetrieverEuropePMC,
	domain.RetrieverOpenAlex,
	domain.RetrieverPLOS,
	domain.RetrieverSemanticScholar,
	domain.RetrieverCORE,
	domain.RetrieverElsevier,
	domain.RetrieverNCBI,
	domain.RetrieverExa,
}

// AgentSlugs lists every agent whose seed key is read from the environment.
var AgentSlugs = []string{domain.AgentOpenAI, domain.AgentClaude, domain.AgentGemini}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load but reads the given file when path
// is non-empty instead of searching the default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/research-desk")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv(EnvPrefix + "_DATABASE_PASSWORD")

	cfg.Keys = make(map[string]string)
	for _, slug := range append(append([]string{}, RetrieverSlugs...), AgentSlugs...) {
		if key := os.Getenv(KeyEnv(slug)); key != "" {
			cfg.Keys[slug] = key
		}
	}
}

// KeyEnv returns the environment variable holding the seed key for slug.
func KeyEnv(slug string) string {
	return EnvPrefix + "_KEYS_" + strings.ToUpper(slug)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite_path", "research-desk.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "researchdesk")
	v.SetDefault("database.name", "research_desk")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_auto_run", true)
	v.SetDefault("database.statement_cache_capacity", 512)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "research_desk")

	// Search defaults
	v.SetDefault("search.timeout", "5m")
	v.SetDefault("search.default_max_results", 10)
	v.SetDefault("search.default_retriever", domain.RetrieverExa)
	v.SetDefault("search.user_agent", "research-desk/1.0")
	v.SetDefault("search.mailto", "")

	// Retriever overrides. Registering every key lets env vars such as
	// RESEARCHDESK_RETRIEVERS_NCBI_RATE_LIMIT reach the map.
	for _, slug := range RetrieverSlugs {
		prefix := "retrievers." + slug + "."
		v.SetDefault(prefix+"base_url", "")
		v.SetDefault(prefix+"timeout", "0s")
		v.SetDefault(prefix+"rate_limit", 0.0)
		v.SetDefault(prefix+"burst", 0)
		v.SetDefault(prefix+"max_retries", 0)
		v.SetDefault(prefix+"retry_delay", "0s")
		v.SetDefault(prefix+"min_interval", "0s")
		v.SetDefault(prefix+"max_results", 0)
	}

	// Agent defaults
	v.SetDefault("agents.timeout", "120s")
	v.SetDefault("agents.max_attempts", 3)
	v.SetDefault("agents.retry_delay", "1s")
	v.SetDefault("agents.default_system_prompt", "")
	v.SetDefault("agents.openai.base_url", "")
	v.SetDefault("agents.claude.base_url", "")
	v.SetDefault("agents.gemini.base_url", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Search.Timeout < 0 {
		return fmt.Errorf("search timeout must not be negative")
	}
	if c.Search.DefaultMaxResults <= 0 {
		return fmt.Errorf("search default_max_results must be positive")
	}

	for slug, rc := range c.Retrievers {
		if rc.RateLimit < 0 {
			return fmt.Errorf("retriever %s: rate_limit must not be negative", slug)
		}
		if rc.MaxRetries < 0 {
			return fmt.Errorf("retriever %s: max_retries must not be negative", slug)
		}
	}

	if c.Agents.Timeout <= 0 {
		return fmt.Errorf("agents timeout must be positive")
	}
	if c.Agents.MaxAttempts < 1 {
		return fmt.Errorf("agents max_attempts must be at least 1")
	}

	return nil
}
