package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "perfume-studio/internal/common/errors"
)

// Environment variables holding the three required credentials.
const (
	EnvSearchAPIKey   = "GOOGLE_API_KEY"
	EnvSearchEngineID = "SEARCH_ENGINE_ID"
	EnvGenAIAPIKey    = "GEMINI_API_KEY"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// and fills the remaining gaps from the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile reads a single config file, used by tests and the --config flag.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests under test/e2e
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setFromEnv(&cfg.APIs.Search.APIKey, EnvSearchAPIKey)
	setFromEnv(&cfg.APIs.Search.EngineID, EnvSearchEngineID)
	setFromEnv(&cfg.APIs.GenAI.APIKey, EnvGenAIAPIKey)

	setFromEnv(&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS")
	setFromEnv(&cfg.Database.Redis.Address, "REDIS_ADDRESS")
	setFromEnv(&cfg.Database.Postgres.User, "DB_USER")
	setFromEnv(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func setFromEnv(field *string, name string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(name); val != "" {
		*field = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "perfume-studio"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":8080"
	}
	if cfg.Server.SessionCookie == "" {
		cfg.Server.SessionCookie = "perfume_session"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "perfume-descriptions"
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.SearchTTL == 0 {
		cfg.Cache.SearchTTL = 3600000
	}
	if cfg.Cache.ScrapeTTL == 0 {
		cfg.Cache.ScrapeTTL = 600000
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "perfume-studio"
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 12 * 3600000
	}

	if cfg.APIs.Search.Timeout == 0 {
		cfg.APIs.Search.Timeout = 10000
	}
	if cfg.APIs.GenAI.DefaultModel == "" {
		cfg.APIs.GenAI.DefaultModel = "gemini-1.5-flash"
	}
	if len(cfg.APIs.GenAI.Models) == 0 {
		cfg.APIs.GenAI.Models = []string{
			"gemini-1.5-flash",
			"gemini-1.5-pro",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		}
	}
	if cfg.APIs.GenAI.Downgrades == nil {
		cfg.APIs.GenAI.Downgrades = map[string]string{
			"gemini-1.5-pro":   "gemini-1.5-flash",
			"gemini-2.5-pro":   "gemini-2.5-flash",
			"gemini-2.5-flash": "gemini-2.5-flash-lite",
		}
	}
	if cfg.APIs.GenAI.MaxAttempts == 0 {
		cfg.APIs.GenAI.MaxAttempts = 3
	}
	if cfg.APIs.GenAI.TransientWait == 0 {
		cfg.APIs.GenAI.TransientWait = 2000
	}

	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 10000
	}
	if cfg.Scraper.MaxChars == 0 {
		cfg.Scraper.MaxChars = 20000
	}

	if cfg.Archive.HistoryLimit == 0 {
		cfg.Archive.HistoryLimit = 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		if worker.Timeout == 0 {
			worker.Timeout = cfg.Camunda.Timeout
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// Validate reports the first missing credential as a configuration error.
func Validate(cfg *Config) error {
	required := []struct {
		value string
		name  string
	}{
		{cfg.APIs.Search.APIKey, EnvSearchAPIKey},
		{cfg.APIs.Search.EngineID, EnvSearchEngineID},
		{cfg.APIs.GenAI.APIKey, EnvGenAIAPIKey},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewConfigurationMissingError(missing)
	}

	if !cfg.ModelAllowed(cfg.APIs.GenAI.DefaultModel) {
		return fmt.Errorf("invalid configuration: apis.genai.default_model %q is not in apis.genai.models", cfg.APIs.GenAI.DefaultModel)
	}

	switch cfg.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid configuration: cache.backend must be memory or redis, got %q", cfg.Cache.Backend)
	}
	switch cfg.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid configuration: session.backend must be memory or redis, got %q", cfg.Session.Backend)
	}

	if (cfg.Cache.Backend == "redis" || cfg.Session.Backend == "redis") && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("invalid configuration: database.redis.address is required for the redis backend")
	}
	if cfg.Archive.Enabled && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("invalid configuration: database.postgres.host is required when archive is enabled")
	}
	if cfg.Archive.IndexEnabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("invalid configuration: database.elasticsearch.addresses is required when archive.index_enabled is set")
	}

	return nil
}

// ValidateWorkerManager adds the checks only the Zeebe worker process needs.
func ValidateWorkerManager(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}

// ModelAllowed reports whether name is one of the configured model options.
func (c *Config) ModelAllowed(name string) bool {
	for _, m := range c.APIs.GenAI.Models {
		if m == name {
			return true
		}
	}
	return false
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		Timeout:       cfg.Camunda.Timeout,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
