package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
auth:
  jwt_secret: testing
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "*", cfg.Server.CORSOrigin)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "condition-reports", cfg.Kafka.Topic)
	assert.Equal(t, "testing", cfg.Auth.JWTSecret)
	assert.Equal(t, 7, cfg.Conditions.WindowDays)
	assert.Equal(t, 50, cfg.Conditions.ReportLimit)
	assert.Equal(t, 30, cfg.Conditions.QueryBatchSize)
	assert.Equal(t, 10, cfg.RateLimit.MaxSubmissions)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 15*time.Minute, cfg.Worker.Interval)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("JWT_SECRET", "from-env")

	path := writeConfigFile(t, `
postgres:
  user: conditions
  password: ${DB_PASSWORD}
  database: conditions
auth:
  jwt_secret: ${JWT_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Postgres.Password)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "pw",
		Database: "conditions",
	}
	assert.Equal(t,
		"postgres://svc:pw@db.internal:5433/conditions?sslmode=disable",
		cfg.ConnectionString(),
	)
}

func TestWindowOverrides(t *testing.T) {
	path := writeConfigFile(t, `
conditions:
  window_days: 14
  report_limit: 100
  query_batch_size: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Conditions.WindowDays)
	assert.Equal(t, 100, cfg.Conditions.ReportLimit)
	assert.Equal(t, 10, cfg.Conditions.QueryBatchSize)
}
