package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL           string   `mapstructure:"REDIS_URL"`
	JWTSecret          string   `mapstructure:"JWT_SECRET"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	PhoneLookupTimeout int      `mapstructure:"PHONE_LOOKUP_TIMEOUT_MS"`
	TokenRetryLimit    int      `mapstructure:"TOKEN_RETRY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("PHONE_LOOKUP_TIMEOUT_MS", 2000)
	v.SetDefault("TOKEN_RETRY_LIMIT", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("PHONE_LOOKUP_TIMEOUT_MS")
	v.BindEnv("TOKEN_RETRY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// PhoneLookupDeadline returns the time budget for the existing-patient phone
// lookup performed before token issuance.
func (c *Config) PhoneLookupDeadline() time.Duration {
	if c.PhoneLookupTimeout <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PhoneLookupTimeout) * time.Millisecond
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret must be set so real bearer authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when ENV=%q", c.Env)
	}
	return nil
}
