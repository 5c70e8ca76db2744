package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Log          LogConfig          `yaml:"log"`
	Redis        RedisConfig        `yaml:"redis"`
	Tailscale    TailscaleConfig    `yaml:"tailscale"`
	Extractor    ExtractorConfig    `yaml:"extractor"`
	Conversation ConversationConfig `yaml:"conversation"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// MaxConns caps the connection pool.
	MaxConns int32 `yaml:"max_conns"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
	// WebhookToken, when set, must be passed as ?token= on the chat webhook.
	WebhookToken string `yaml:"webhook_token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type ExtractorConfig struct {
	Backend         string        `yaml:"backend"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	FallbackToRules bool          `yaml:"fallback_to_rules"`
}

type ConversationConfig struct {
	IntentConfidence    float64       `yaml:"intent_confidence"`
	AskForNotes         bool          `yaml:"ask_for_notes"`
	AutoCreateExercises bool          `yaml:"auto_create_exercises"`
	UseBuiltinCatalog   bool          `yaml:"use_builtin_catalog"`
	RequireVerification bool          `yaml:"require_verification"`
	DashboardURL        string        `yaml:"dashboard_url"`
	Phrases             PhrasesConfig `yaml:"phrases"`
}

// PhrasesConfig overrides the recognized word lists. Field names match
// conversation.Phrases so the two convert directly.
type PhrasesConfig struct {
	Yes       []string `yaml:"yes"`
	No        []string `yaml:"no"`
	Cancel    []string `yaml:"cancel"`
	Help      []string `yaml:"help"`
	Exercises []string `yaml:"exercises"`
	Web       []string `yaml:"web"`
	Done      []string `yaml:"done"`
	NoComment []string `yaml:"no_comment"`
	NoWeight  []string `yaml:"no_weight"`
	Unsure    []string `yaml:"unsure"`
	Restart   []string `yaml:"restart"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// SlogLevel maps log.level to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Default returns the configuration used before the YAML file is applied.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database:  DatabaseConfig{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Log:       LogConfig{Level: "info"},
		Tailscale: TailscaleConfig{Hostname: "repbot"},
		Extractor: ExtractorConfig{
			Backend:         "rules",
			Model:           "gpt-4o-mini",
			Timeout:         8 * time.Second,
			FallbackToRules: true,
		},
		Conversation: ConversationConfig{
			IntentConfidence:  0.6,
			UseBuiltinCatalog: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix REPBOT_ and underscore-separated paths:
//
//	REPBOT_SERVER_HOST, REPBOT_SERVER_PORT,
//	REPBOT_DB_HOST, REPBOT_DB_PORT, REPBOT_DB_NAME,
//	REPBOT_DB_USER, REPBOT_DB_PASSWORD, REPBOT_DB_SSLMODE, REPBOT_DB_MAX_CONNS,
//	REPBOT_AUTH_API_KEY, REPBOT_AUTH_WEBHOOK_TOKEN, REPBOT_LOG_LEVEL,
//	REPBOT_REDIS_URL, REPBOT_EXTRACTOR_BACKEND, REPBOT_OPENAI_API_KEY,
//	REPBOT_DASHBOARD_URL
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPBOT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPBOT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPBOT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPBOT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPBOT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPBOT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPBOT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPBOT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPBOT_DB_MAX_CONNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Database.MaxConns = int32(n)
		}
	}
	if v := os.Getenv("REPBOT_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPBOT_AUTH_WEBHOOK_TOKEN"); v != "" {
		cfg.Auth.WebhookToken = v
	}
	if v := os.Getenv("REPBOT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REPBOT_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REPBOT_EXTRACTOR_BACKEND"); v != "" {
		cfg.Extractor.Backend = v
	}
	if v := os.Getenv("REPBOT_OPENAI_API_KEY"); v != "" {
		cfg.Extractor.APIKey = v
	}
	if v := os.Getenv("REPBOT_DASHBOARD_URL"); v != "" {
		cfg.Conversation.DashboardURL = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be at least 1")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is enabled")
	}
	switch c.Extractor.Backend {
	case "rules":
	case "openai":
		if c.Extractor.APIKey == "" {
			return fmt.Errorf("extractor.api_key is required for the openai backend")
		}
	default:
		return fmt.Errorf("extractor.backend %q must be rules or openai", c.Extractor.Backend)
	}
	if c.Conversation.IntentConfidence < 0 || c.Conversation.IntentConfidence > 1 {
		return fmt.Errorf("conversation.intent_confidence must be between 0 and 1")
	}
	return nil
}
