package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Queue      QueueConfig      `yaml:"queue" mapstructure:"queue"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	Apollo     ApolloConfig     `yaml:"apollo" mapstructure:"apollo"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Provider   ProviderConfig   `yaml:"provider" mapstructure:"provider"`
	Workers    WorkersConfig    `yaml:"workers" mapstructure:"workers"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// QueueConfig configures the work queue backend.
type QueueConfig struct {
	// Driver is "kafka" or "memory". The memory driver only makes sense when
	// serve and work run in one process.
	Driver  string   `yaml:"driver" mapstructure:"driver"`
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
	GroupID string   `yaml:"group_id" mapstructure:"group_id"`
	Buffer  int      `yaml:"buffer" mapstructure:"buffer"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ApolloConfig holds Apollo.io API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	InsightModel string `yaml:"insight_model" mapstructure:"insight_model"`
}

// ProviderConfig bounds provider adapter execution.
type ProviderConfig struct {
	TimeoutSecs        int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ScraperTimeoutSecs int `yaml:"scraper_timeout_secs" mapstructure:"scraper_timeout_secs"`
}

// WorkersConfig configures the worker pool and reconcile poller.
type WorkersConfig struct {
	Count                 int `yaml:"count" mapstructure:"count"`
	ReconcileIntervalSecs int `yaml:"reconcile_interval_secs" mapstructure:"reconcile_interval_secs"`
	StaleAfterSecs        int `yaml:"stale_after_secs" mapstructure:"stale_after_secs"`
	ReconcileBatch        int `yaml:"reconcile_batch" mapstructure:"reconcile_batch"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures the background alert checker.
type MonitoringConfig struct {
	// WebhookURL receives alert payloads; empty disables delivery (alerts
	// are still logged).
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	PendingBacklog       int     `yaml:"pending_backlog" mapstructure:"pending_backlog"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("queue.driver", "kafka")
	v.SetDefault("queue.brokers", []string{"localhost:9092"})
	v.SetDefault("queue.topic", "enrichment-tasks")
	v.SetDefault("queue.group_id", "enrichment-workers")
	v.SetDefault("queue.buffer", 1024)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("anthropic.insight_model", "claude-haiku-4-5-20251001")
	v.SetDefault("provider.timeout_secs", 30)
	v.SetDefault("provider.scraper_timeout_secs", 30)
	v.SetDefault("workers.count", 4)
	v.SetDefault("workers.reconcile_interval_secs", 60)
	v.SetDefault("workers.stale_after_secs", 300)
	v.SetDefault("workers.reconcile_batch", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.pending_backlog", 1000)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given run mode
// ("serve", "work", "migrate" or "import"). It collects every problem rather
// than stopping at the first.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url (file path) is required for the sqlite driver")
		}
	default:
		problems = append(problems, "store.driver must be postgres or sqlite")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		problems = append(problems, c.validateQueue()...)
	case "work":
		if c.Workers.Count < 1 || c.Workers.Count > 64 {
			problems = append(problems, "workers.count must be between 1 and 64")
		}
		if c.Provider.TimeoutSecs <= 0 {
			problems = append(problems, "provider.timeout_secs must be > 0")
		}
		problems = append(problems, c.validateQueue()...)
	case "migrate", "import":
		// Store checks above are sufficient.
	default:
		problems = append(problems, "unknown mode: "+mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateQueue() []string {
	switch c.Queue.Driver {
	case "kafka":
		if len(c.Queue.Brokers) == 0 {
			return []string{"queue.brokers is required for the kafka driver"}
		}
		if c.Queue.Topic == "" {
			return []string{"queue.topic is required for the kafka driver"}
		}
	case "memory":
		// No external settings.
	default:
		return []string{"queue.driver must be kafka or memory"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
