// Package config loads the service configuration from an optional config file,
// environment variables and built-in defaults.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"golang.org/x/crypto/hkdf"
)

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Rewards   RewardsConfig   `mapstructure:"rewards" yaml:"rewards"`
	Recommend RecommendConfig `mapstructure:"recommender" yaml:"recommender"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// AllowedOrigins feeds the CORS handler. Empty disables CORS headers.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	StaticDir      string   `mapstructure:"static_dir" yaml:"static_dir"`
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         string `mapstructure:"port" yaml:"port"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"-"`
	Name         string `mapstructure:"name" yaml:"name"`
	SSLMode      string `mapstructure:"sslmode" yaml:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// AuthConfig controls sessions and tokens
type AuthConfig struct {
	// Secret is the master secret; cookie and token keys are derived from it.
	Secret string `mapstructure:"secret" yaml:"-"`
	// IdentitySecret verifies identity tokens issued by the sign-in provider.
	IdentitySecret string        `mapstructure:"identity_secret" yaml:"-"`
	TokenTTL       time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	SessionMaxAge  int           `mapstructure:"session_max_age" yaml:"session_max_age"`
	SecureCookies  bool          `mapstructure:"secure_cookies" yaml:"secure_cookies"`
}

// RewardsConfig holds reward amounts and timings
type RewardsConfig struct {
	StartingCoins int           `mapstructure:"starting_coins" yaml:"starting_coins"`
	AdReward      int           `mapstructure:"ad_reward" yaml:"ad_reward"`
	QuizReward    int           `mapstructure:"quiz_reward" yaml:"quiz_reward"`
	CheckInReward []int         `mapstructure:"checkin_rewards" yaml:"checkin_rewards"`
	TaskDelay     time.Duration `mapstructure:"task_delay" yaml:"task_delay"`
}

// RecommendConfig selects the layout recommender
type RecommendConfig struct {
	// URL of the external recommendation function. Empty selects the
	// built-in engagement heuristic.
	URL     string        `mapstructure:"url" yaml:"url"`
	APIKey  string        `mapstructure:"api_key" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Keys holds the derived signing and encryption keys.
type Keys struct {
	CookieAuth    []byte
	CookieEncrypt []byte
	Token         []byte
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8181",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			StaticDir:    "./static/",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Name:         "adwin",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
		},
		Auth: AuthConfig{
			TokenTTL:      24 * time.Hour,
			SessionMaxAge: 86400,
		},
		Rewards: RewardsConfig{
			StartingCoins: 100,
			AdReward:      5,
			QuizReward:    5,
			CheckInReward: []int{10, 15, 20, 25, 30},
			TaskDelay:     3 * time.Second,
		},
		Recommend: RecommendConfig{
			Timeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "json",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.static_dir", d.Server.StaticDir)

	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)

	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.identity_secret", d.Auth.IdentitySecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.session_max_age", d.Auth.SessionMaxAge)
	v.SetDefault("auth.secure_cookies", d.Auth.SecureCookies)

	v.SetDefault("rewards.starting_coins", d.Rewards.StartingCoins)
	v.SetDefault("rewards.ad_reward", d.Rewards.AdReward)
	v.SetDefault("rewards.quiz_reward", d.Rewards.QuizReward)
	v.SetDefault("rewards.checkin_rewards", d.Rewards.CheckInReward)
	v.SetDefault("rewards.task_delay", d.Rewards.TaskDelay)

	v.SetDefault("recommender.url", d.Recommend.URL)
	v.SetDefault("recommender.api_key", d.Recommend.APIKey)
	v.SetDefault("recommender.timeout", d.Recommend.Timeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// legacyEnv maps the plain database variables onto config keys so existing
// deployments keep working without the ADWIN_ prefix.
var legacyEnv = map[string]string{
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
}

// New returns a viper instance with defaults and environment bindings.
// If file is non-empty it is used as the config file; otherwise adwin.yaml
// (or .toml/.json) is searched for in the working directory.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("ADWIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, "ADWIN_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("adwin")
		v.AddConfigPath(".")
	}
	return v
}

// Load reads the config file (a missing file is not an error) and decodes it.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads the config file whenever it changes and hands the new
// logging section to apply. Only settings that can change at runtime are
// forwarded.
func Watch(v *viper.Viper, apply func(LoggingConfig)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		apply(LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		})
	})
	v.WatchConfig()
}

// DeriveKeys derives the cookie and token keys from the master secret.
func (c *Config) DeriveKeys() (Keys, error) {
	derive := func(info string, n int) ([]byte, error) {
		out := make([]byte, n)
		r := hkdf.New(sha256.New, []byte(c.Auth.Secret), nil, []byte(info))
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
		}
		return out, nil
	}

	var keys Keys
	var err error
	if keys.CookieAuth, err = derive("adwin cookie auth", 32); err != nil {
		return Keys{}, err
	}
	if keys.CookieEncrypt, err = derive("adwin cookie encrypt", 32); err != nil {
		return Keys{}, err
	}
	if keys.Token, err = derive("adwin token", 32); err != nil {
		return Keys{}, err
	}
	return keys, nil
}
