// Package config loads treecare settings: built-in defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Config holds the configuration for the application.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	LLM      LLMConfig      `yaml:"llm"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// StorageConfig selects and configures the slot store backend.
type StorageConfig struct {
	Driver      string   `yaml:"driver"`
	FileDir     string   `yaml:"file_dir"`
	SQLitePath  string   `yaml:"sqlite_path"`
	PostgresDSN string   `yaml:"postgres_dsn"`
	S3          S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// MetricsConfig configures the execution metrics ledger.
type MetricsConfig struct {
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// LLMConfig selects the chat model behind the advisor and the catalog importer.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai | groq | gemini
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"-"`
	Timeout   string `yaml:"timeout"`
	CachePath string `yaml:"cache_path"`
}

// TelegramConfig is only required by the bot.
type TelegramConfig struct {
	BotToken       string  `yaml:"-"`
	WebhookURL     string  `yaml:"webhook_url"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	AdminUserID    int64   `yaml:"admin_user_id"`
	Port           string  `yaml:"port"`
}

// DefaultConfig returns a config that runs fully offline against a local
// file store.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Driver: DriverFile,
		},
		Metrics: MetricsConfig{
			RetentionDays: 30,
		},
		LLM: LLMConfig{
			Provider: "groq",
			Timeout:  "30s",
		},
		Telegram: TelegramConfig{
			Port: "8080",
		},
	}
}

// Load loads configuration from an optional YAML file and the environment.
// An empty path or a missing file keeps the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.fillDerivedPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TREECARE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TREECARE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TREECARE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TREECARE_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("TREECARE_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("TREECARE_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("TREECARE_S3_BUCKET"); v != "" {
		c.Storage.S3.Bucket = v
	}
	if v := os.Getenv("TREECARE_S3_ENDPOINT"); v != "" {
		c.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" && c.Storage.S3.Region == "" {
		c.Storage.S3.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3.AccessKeyID = v
		c.Storage.S3.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}

	if v := os.Getenv("TREECARE_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if key := providerKeyFromEnv(c.LLM.Provider); key != "" {
		c.LLM.APIKey = key
	}
	if v := os.Getenv("TREECARE_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}

	// Telegram Config (optional for CLI, required for bot)
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_WEBHOOK_URL"); v != "" {
		c.Telegram.WebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_ALLOW_USER_IDS"); v != "" {
		ids, err := parseIDList(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ALLOW_USER_IDS: %w", err)
		}
		c.Telegram.AllowedUserIDs = ids
	}
	if v := os.Getenv("TELEGRAM_ADMIN_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ADMIN_USER_ID: %w", err)
		}
		c.Telegram.AdminUserID = id
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Telegram.Port = v
	}
	return nil
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "groq":
		return os.Getenv("GROQ_API_KEY")
	}
	return ""
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) fillDerivedPaths() {
	if c.Storage.FileDir == "" {
		c.Storage.FileDir = filepath.Join(c.DataDir, "slots")
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join(c.DataDir, "treecare.db")
	}
	if c.Metrics.DBPath == "" {
		c.Metrics.DBPath = filepath.Join(c.DataDir, "metrics.db")
	}
}

// Validate checks the storage driver and the settings it requires.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage driver postgres requires postgres_dsn")
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage driver s3 requires s3.bucket")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); c.LLM.Timeout != "" && err != nil {
		return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
	}
	return nil
}

// RequireTelegram checks the settings the bot cannot start without.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if len(c.Telegram.AllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOW_USER_IDS environment variable not set")
	}
	return nil
}

// LLMTimeout returns the LLM timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
