package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Log         LogConfig
	Auth        AuthConfig
	Redis       RedisConfig
	Invoice     InvoiceConfig
	Marketplace MarketplaceConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

type InvoiceConfig struct {
	GeminiAPIKey string
	Model        string
}

type MarketplaceConfig struct {
	MatchRadiusKm float64
	TxTimeout     time.Duration
}

// Load reads .env (if present), then the optional YAML file at path, then
// environment variables. SERVER_PORT overrides server.port and so on.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			Name:            v.GetString("db.name"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			MigrateOnStart:  v.GetBool("db.migrate_on_start"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Invoice: InvoiceConfig{
			GeminiAPIKey: v.GetString("invoice.gemini_api_key"),
			Model:        v.GetString("invoice.model"),
		},
		Marketplace: MarketplaceConfig{
			MatchRadiusKm: v.GetFloat64("marketplace.match_radius_km"),
			TxTimeout:     v.GetDuration("marketplace.tx_timeout"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "logiledger")
	v.SetDefault("db.password", "secret")
	v.SetDefault("db.name", "logiledger")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "5m")
	v.SetDefault("db.migrate_on_start", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "logiledger")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "logiledger.events")

	v.SetDefault("invoice.gemini_api_key", "")
	v.SetDefault("invoice.model", "gemini-2.0-flash")

	v.SetDefault("marketplace.match_radius_km", 50.0)
	v.SetDefault("marketplace.tx_timeout", "5s")
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (AUTH_JWT_SECRET) is required")
	}
	if c.Marketplace.TxTimeout <= 0 {
		return fmt.Errorf("marketplace.tx_timeout must be positive, got %s", c.Marketplace.TxTimeout)
	}
	if c.Marketplace.MatchRadiusKm <= 0 {
		return fmt.Errorf("marketplace.match_radius_km must be positive, got %v", c.Marketplace.MatchRadiusKm)
	}
	return nil
}
