package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "kafka", cfg.Queue.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Queue.Brokers)
	assert.Equal(t, "enrichment-tasks", cfg.Queue.Topic)
	assert.Equal(t, "enrichment-workers", cfg.Queue.GroupID)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Equal(t, "https://api.apollo.io/v1", cfg.Apollo.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.InsightModel)
	assert.Equal(t, 30, cfg.Provider.TimeoutSecs)
	assert.Equal(t, 4, cfg.Workers.Count)
	assert.Equal(t, 60, cfg.Workers.ReconcileIntervalSecs)
	assert.Equal(t, 300, cfg.Workers.StaleAfterSecs)
	assert.Equal(t, 100, cfg.Workers.ReconcileBatch)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: leads.db
queue:
  driver: memory
log:
  level: debug
  format: console
server:
  port: 9090
workers:
  count: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "memory", cfg.Queue.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Workers.Count)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Provider.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADS_STORE_DRIVER", "postgres")
	t.Setenv("LEADS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LEADS_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the defaults needed by validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/leads"
	cfg.Queue.Driver = "kafka"
	cfg.Queue.Brokers = []string{"localhost:9092"}
	cfg.Queue.Topic = "enrichment-tasks"
	cfg.Server.Port = 8080
	cfg.Workers.Count = 4
	cfg.Provider.TimeoutSecs = 30
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_UnknownStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("migrate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
}

func TestValidateWork_WorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Workers.Count = 0
	err := cfg.Validate("work")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "workers.count must be between 1 and 64")

	cfg.Workers.Count = 65
	err = cfg.Validate("work")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "workers.count must be between 1 and 64")

	cfg.Workers.Count = 64
	assert.NoError(t, cfg.Validate("work"))
}

func TestValidateWork_ProviderTimeout(t *testing.T) {
	cfg := validDefaults()
	cfg.Provider.TimeoutSecs = 0

	err := cfg.Validate("work")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provider.timeout_secs must be > 0")
}

func TestValidate_QueueKafkaNeedsBrokers(t *testing.T) {
	cfg := validDefaults()
	cfg.Queue.Brokers = nil

	err := cfg.Validate("work")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "queue.brokers is required")
}

func TestValidate_MemoryQueueNeedsNothing(t *testing.T) {
	cfg := validDefaults()
	cfg.Queue.Driver = "memory"
	cfg.Queue.Brokers = nil
	cfg.Queue.Topic = ""

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidate_UnknownQueueDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Queue.Driver = "rabbitmq"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "queue.driver must be kafka or memory")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_Migrate(t *testing.T) {
	cfg := validDefaults()
	cfg.Queue.Driver = "rabbitmq" // not consulted for migrate
	assert.NoError(t, cfg.Validate("migrate"))
	assert.NoError(t, cfg.Validate("import"))
}
