package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageInMemory = "inmemory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Port        string `yaml:"port"`
	Storage     string `yaml:"storage"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	SupabaseURL       string `yaml:"supabase_url"`
	SupabaseAnonKey   string `yaml:"supabase_anon_key"`
	SupabaseJWTSecret string `yaml:"supabase_jwt_secret"`
	SiteURL           string `yaml:"site_url"`
	OAuthProvider     string `yaml:"oauth_provider"`

	FeedLimit     int  `yaml:"feed_limit"`
	SecureCookies bool `yaml:"secure_cookies"`
}

func Default() *Config {
	return &Config{
		Port:          "8080",
		Storage:       StorageInMemory,
		SQLitePath:    "chirp.db",
		SiteURL:       "http://localhost:8080",
		OAuthProvider: "github",
		FeedLimit:     50,
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если путь задан),
// затем .env и переменные окружения. Окружение всегда побеждает.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// .env не обязателен
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"PORT":                &c.Port,
		"STORAGE":             &c.Storage,
		"DATABASE_URL":        &c.DatabaseURL,
		"SQLITE_PATH":         &c.SQLitePath,
		"SUPABASE_URL":        &c.SupabaseURL,
		"SUPABASE_ANON_KEY":   &c.SupabaseAnonKey,
		"SUPABASE_JWT_SECRET": &c.SupabaseJWTSecret,
		"SITE_URL":            &c.SiteURL,
		"OAUTH_PROVIDER":      &c.OAuthProvider,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("FEED_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FEED_LIMIT %q: %w", v, err)
		}
		c.FeedLimit = n
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}
		c.SecureCookies = b
	}
	return nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageInMemory, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	if c.Storage == StorageSQLite && c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required for sqlite storage")
	}
	if c.FeedLimit <= 0 {
		return fmt.Errorf("feed limit must be positive, got %d", c.FeedLimit)
	}
	if c.SupabaseURL != "" && c.SupabaseJWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET is required when SUPABASE_URL is set")
	}
	return nil
}

// AuthEnabled - настроен ли вход через сервис идентификации.
func (c *Config) AuthEnabled() bool {
	return c.SupabaseURL != ""
}
