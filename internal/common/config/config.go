// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Session  SessionConfig           `mapstructure:"session"`
	APIs     APIsConfig              `mapstructure:"apis"`
	Scraper  ScraperConfig           `mapstructure:"scraper"`
	Archive  ArchiveConfig           `mapstructure:"archive"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address       string `mapstructure:"address"`
	MetricsAddr   string `mapstructure:"metrics_address"` // worker-manager health/metrics listener
	SessionCookie string `mapstructure:"session_cookie"`
	SecureCookie  bool   `mapstructure:"secure_cookie"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	DeployProcess  bool   `mapstructure:"deploy_process"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// CacheConfig selects the backend shared by the resolver and the page extractor.
type CacheConfig struct {
	Backend   string `mapstructure:"backend"`    // memory | redis
	SearchTTL int    `mapstructure:"search_ttl"` // milliseconds
	ScrapeTTL int    `mapstructure:"scrape_ttl"` // milliseconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SessionConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
	TTL     int    `mapstructure:"ttl"`     // milliseconds
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Search SearchAPIConfig `mapstructure:"search"`
	GenAI  GenAIConfig     `mapstructure:"genai"`
}

type SearchAPIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	EngineID string `mapstructure:"engine_id"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

type GenAIConfig struct {
	BaseURL       string            `mapstructure:"base_url"`
	APIKey        string            `mapstructure:"api_key"`
	DefaultModel  string            `mapstructure:"default_model"`
	Models        []string          `mapstructure:"models"`
	Downgrades    map[string]string `mapstructure:"downgrades"`
	MaxAttempts   int               `mapstructure:"max_attempts"`
	TransientWait int               `mapstructure:"transient_wait"` // milliseconds
	Timeout       int               `mapstructure:"timeout"`        // milliseconds, 0 = client default
}

type ScraperConfig struct {
	UserAgent string `mapstructure:"user_agent"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	MaxChars  int    `mapstructure:"max_chars"`
}

type ArchiveConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	IndexEnabled bool `mapstructure:"index_enabled"`
	HistoryLimit int  `mapstructure:"history_limit"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
