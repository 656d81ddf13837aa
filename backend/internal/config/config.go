// Package config loads service settings from an optional config.yaml and
// PATAS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"patas-conectadas/backend/internal/utils"

	"github.com/spf13/viper"
)

const EnvPrefix = "PATAS"

type (
	Config struct {
		App       App       `mapstructure:"app"`
		Server    Server    `mapstructure:"server"`
		Database  Database  `mapstructure:"database"`
		Redis     Redis     `mapstructure:"redis"`
		Cache     Cache     `mapstructure:"cache"`
		RateLimit RateLimit `mapstructure:"rate_limit"`
		CORS      CORS      `mapstructure:"cors"`
		Logger    Logger    `mapstructure:"logger"`
	}

	App struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	}

	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	}

	Database struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		User            string        `mapstructure:"user"`
		Password        string        `mapstructure:"password"`
		Name            string        `mapstructure:"name"`
		SSLMode         string        `mapstructure:"sslmode"`
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
		ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
		AutoMigrate     bool          `mapstructure:"auto_migrate"`
		SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	}

	// Redis is optional; an empty Host disables it.
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	}

	Cache struct {
		Enabled   bool          `mapstructure:"enabled"`
		TTL       time.Duration `mapstructure:"ttl"`
		KeyPrefix string        `mapstructure:"key_prefix"`
	}

	RateLimit struct {
		Enabled bool    `mapstructure:"enabled"`
		RPS     float64 `mapstructure:"rps"`
		Burst   int     `mapstructure:"burst"`

		// Writes is the per-client, per-route budget for mutating requests
		// inside Window when redis is available.
		Writes int           `mapstructure:"writes"`
		Window time.Duration `mapstructure:"window"`
	}

	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	}

	Logger struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "patas-conectadas")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "patas_conectadas")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.key_prefix", "patas:")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.writes", 60)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("cors.allow_origins", []string{"*"})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
}

// Load reads config.yaml from PATAS_CONFIG_PATH (when set), the working
// directory, ./backend or /etc/patas. A missing file is not an error.
// Environment variables win over the file, e.g. PATAS_DATABASE_HOST.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path := utils.GetEnv(EnvPrefix+"_CONFIG_PATH", ""); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/etc/patas/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c *Config) GetRedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

// DSN is the libpq keyword/value connection string understood by pgx.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
