package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Auth       AuthConfig       `yaml:"auth"`
	Conditions ConditionsConfig `yaml:"conditions"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Worker     WorkerConfig     `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigin     string        `yaml:"cors_origin"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	Enabled       bool          `yaml:"enabled"`
	FlushMessages int           `yaml:"flush_messages"`
	FlushTimeout  time.Duration `yaml:"flush_timeout"`
}

// AuthConfig holds bearer-token verification and identity-provider configuration
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	ProviderBaseURL string        `yaml:"provider_base_url"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
}

// ConditionsConfig holds report windowing and query fan-out configuration
type ConditionsConfig struct {
	// WindowDays is the trailing window, in UTC calendar days, that a
	// report's date_played must fall inside to count toward averages.
	WindowDays int `yaml:"window_days"`
	// ReportLimit caps the number of reports fetched per course listing.
	ReportLimit int `yaml:"report_limit"`
	// QueryBatchSize is the maximum number of course IDs per membership
	// query. The backing store rejects larger ID lists, so it must never
	// be exceeded.
	QueryBatchSize int `yaml:"query_batch_size"`
}

// RateLimitConfig holds submission rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	MaxSubmissions int           `yaml:"max_submissions"`
	Window         time.Duration `yaml:"window"`
}

// WorkerConfig holds background health worker configuration
type WorkerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = "*"
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 50
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 5
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "condition-reports"
	}
	if c.Kafka.FlushMessages == 0 {
		c.Kafka.FlushMessages = 100
	}
	if c.Kafka.FlushTimeout == 0 {
		c.Kafka.FlushTimeout = 100 * time.Millisecond
	}

	// Auth defaults
	if c.Auth.ProviderTimeout == 0 {
		c.Auth.ProviderTimeout = 5 * time.Second
	}

	// Conditions defaults
	if c.Conditions.WindowDays == 0 {
		c.Conditions.WindowDays = 7
	}
	if c.Conditions.ReportLimit == 0 {
		c.Conditions.ReportLimit = 50
	}
	if c.Conditions.QueryBatchSize == 0 {
		c.Conditions.QueryBatchSize = 30
	}

	// Rate limit defaults
	if c.RateLimit.MaxSubmissions == 0 {
		c.RateLimit.MaxSubmissions = 10
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 1 * time.Hour
	}

	// Worker defaults
	if c.Worker.Interval == 0 {
		c.Worker.Interval = 15 * time.Minute
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Worker.Enabled = true
	return cfg
}
