// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	HTTP           HTTPConfig              `mapstructure:"http"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Observability  ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address        string `mapstructure:"address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	BikeIndex    string   `mapstructure:"bike_index"`
	ListingIndex string   `mapstructure:"listing_index"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
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
}

// RecommendationConfig drives the scoring engine. Weight overrides are
// applied on top of the named profile, keys match the yaml names of the
// weight fields (e.g. "category_match").
type RecommendationConfig struct {
	Profile          string             `mapstructure:"profile"`
	PoolSource       string             `mapstructure:"pool_source"` // postgres | elasticsearch
	SameCategoryOnly bool               `mapstructure:"same_category_only"`
	DefaultLimit     int                `mapstructure:"default_limit"`
	MaxLimit         int                `mapstructure:"max_limit"`
	SimilarCacheTTL  int                `mapstructure:"similar_cache_ttl"` // seconds
	BudgetCacheTTL   int                `mapstructure:"budget_cache_ttl"`  // seconds
	Timeout          int                `mapstructure:"timeout"`           // milliseconds
	SimilarWeights   map[string]float64 `mapstructure:"similar_weights"`
	BudgetWeights    map[string]float64 `mapstructure:"budget_weights"`
	BrandTrust       map[string]float64 `mapstructure:"brand_trust"`
	CircuitBreaker   BreakerConfig      `mapstructure:"circuit_breaker"`
}

// BreakerConfig tunes the circuit breaker in front of redis.
type BreakerConfig struct {
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
	OpenTimeout      int    `mapstructure:"open_timeout"` // milliseconds
	MaxRequests      uint32 `mapstructure:"max_requests"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
