package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		PublicBaseURL   string        `mapstructure:"publicBaseURL"` // Base URL embedded in generated webhook URLs
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Encryption struct {
		Key string `mapstructure:"key"` // Master key for credential encryption at rest
	} `mapstructure:"encryption"`
	Identity struct {
		APIKeys map[string]string `mapstructure:"apiKeys"` // Management API key -> tenant ID
	} `mapstructure:"identity"`
	Solapi struct {
		BaseURL string        `mapstructure:"baseURL"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"solapi"`
	Meta struct {
		GraphBaseURL  string        `mapstructure:"graphBaseURL"`
		Timeout       time.Duration `mapstructure:"timeout"`
		RetryMaxWait  time.Duration `mapstructure:"retryMaxWait"`  // Max elapsed time for lead fetch retries
		RetryInterval time.Duration `mapstructure:"retryInterval"` // Initial retry interval
	} `mapstructure:"meta"`
	RateLimit struct {
		Backend string        `mapstructure:"backend"` // "memory" or "redis"
		Redis   RedisConfig   `mapstructure:"redis"`
		Webhook RateLimitRule `mapstructure:"webhook"`
		API     RateLimitRule `mapstructure:"api"`
	} `mapstructure:"rateLimit"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		WebhookLog LogWorkerPoolConfig `mapstructure:"webhookLog"`
	} `mapstructure:"workerPools"`
	TokenCache struct {
		MaxEntries int64         `mapstructure:"maxEntries"`
		TTL        time.Duration `mapstructure:"ttl"`
	} `mapstructure:"tokenCache"`
}

// RateLimitRule holds a fixed-window rate limit rule
type RateLimitRule struct {
	MaxRequests int           `mapstructure:"maxRequests"`
	Window      time.Duration `mapstructure:"window"`
}

// RedisConfig holds connection settings for the shared rate-limit store
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogWorkerPoolConfig holds configuration for the webhook log worker pool
type LogWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	// Create new viper instance
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.publicBaseURL", "http://localhost:8080")
	v.SetDefault("metrics.enabled", true)

	// Outbound call defaults
	v.SetDefault("solapi.baseURL", "https://api.solapi.com")
	v.SetDefault("solapi.timeout", 10*time.Second)
	v.SetDefault("meta.graphBaseURL", "https://graph.facebook.com/v19.0")
	v.SetDefault("meta.timeout", 10*time.Second)
	v.SetDefault("meta.retryMaxWait", 20*time.Second)
	v.SetDefault("meta.retryInterval", 500*time.Millisecond)

	// Rate limit defaults mirror the documented presets
	v.SetDefault("rateLimit.backend", "memory")
	v.SetDefault("rateLimit.webhook.maxRequests", 100)
	v.SetDefault("rateLimit.webhook.window", time.Minute)
	v.SetDefault("rateLimit.api.maxRequests", 30)
	v.SetDefault("rateLimit.api.window", time.Minute)

	// WorkerPools defaults
	v.SetDefault("workerPools.webhookLog.poolSize", 4)
	v.SetDefault("workerPools.webhookLog.queueSize", 1000)
	v.SetDefault("workerPools.webhookLog.expiryTime", time.Minute)

	// Token cache defaults
	v.SetDefault("tokenCache.maxEntries", 10000)
	v.SetDefault("tokenCache.ttl", 10*time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.solapi-alert")
	v.AddConfigPath("/etc/solapi-alert")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if key := os.Getenv("ENCRYPTION_KEY"); key != "" {
		v.Set("encryption.key", key)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		v.Set("rateLimit.redis.addr", addr)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		// Get the field tag value (mapstructure)
		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		// Build the env var path
		path := append(parts, tag)
		key := strings.Join(path, ".")

		// If it's a struct, recursively bind its fields
		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		// Bind the env var
		_ = v.BindEnv(key)
	}
}
