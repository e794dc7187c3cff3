package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	PatientAPIURL     string        `mapstructure:"PATIENT_API_URL"`
	PatientAPITimeout time.Duration `mapstructure:"PATIENT_API_TIMEOUT"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	DiagnosisCacheTTL time.Duration `mapstructure:"DIAGNOSIS_CACHE_TTL"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	SessionIdleTTL    time.Duration `mapstructure:"SESSION_IDLE_TTL"`
	DefaultPatientID  string        `mapstructure:"DEFAULT_PATIENT_ID"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PATIENT_API_TIMEOUT", "10s")
	v.SetDefault("DIAGNOSIS_CACHE_TTL", "1h")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("SESSION_IDLE_TTL", "30m")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("PATIENT_API_URL")
	v.BindEnv("PATIENT_API_TIMEOUT")
	v.BindEnv("REDIS_URL")
	v.BindEnv("DIAGNOSIS_CACHE_TTL")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("SESSION_IDLE_TTL")
	v.BindEnv("DEFAULT_PATIENT_ID")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UseDemoStore reports whether patients come from the in-memory demo store
// instead of an upstream patient service.
func (c *Config) UseDemoStore() bool {
	return c.PatientAPIURL == ""
}

// Validate checks that the configuration is safe to run. Production requires
// a real patient service.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.PatientAPIURL != "" {
		u, err := url.Parse(c.PatientAPIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("PATIENT_API_URL must be an absolute http(s) URL, got %q", c.PatientAPIURL)
		}
	}
	if c.IsProduction() && c.UseDemoStore() {
		return fmt.Errorf("PATIENT_API_URL is required in production")
	}
	if c.PatientAPITimeout <= 0 {
		return fmt.Errorf("PATIENT_API_TIMEOUT must be positive, got %s", c.PatientAPITimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.DiagnosisCacheTTL < 0 {
		return fmt.Errorf("DIAGNOSIS_CACHE_TTL must not be negative")
	}
	return nil
}
