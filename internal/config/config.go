package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything cmd/api needs, read from the environment.
type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Port     string `mapstructure:"PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"` // empty disables events

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	LeadScanLimit     int           `mapstructure:"LEAD_SCAN_LIMIT"`
	ChargeLeadCredits bool          `mapstructure:"CHARGE_LEAD_CREDITS"`
	ConvertRateLimit  int           `mapstructure:"CONVERT_RATE_LIMIT"`
	RolloverInterval  time.Duration `mapstructure:"ROLLOVER_INTERVAL"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
}

var keys = []string{
	"APP_ENV", "LOG_LEVEL", "PORT",
	"DATABASE_URL", "AUTO_MIGRATE",
	"RABBITMQ_URL",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM",
	"LEAD_SCAN_LIMIT", "CHARGE_LEAD_CREDITS", "CONVERT_RATE_LIMIT", "ROLLOVER_INTERVAL", "CORS_ORIGINS",
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("LEAD_SCAN_LIMIT", 5000)
	v.SetDefault("CHARGE_LEAD_CREDITS", false)
	v.SetDefault("CONVERT_RATE_LIMIT", 10)
	v.SetDefault("ROLLOVER_INTERVAL", time.Hour)
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.LeadScanLimit <= 0 {
		return nil, errors.New("LEAD_SCAN_LIMIT must be positive")
	}
	if cfg.ConvertRateLimit <= 0 {
		return nil, errors.New("CONVERT_RATE_LIMIT must be positive")
	}
	if cfg.RolloverInterval <= 0 {
		return nil, errors.New("ROLLOVER_INTERVAL must be positive")
	}

	return &cfg, nil
}

// MailEnabled reports whether conversion summaries can be emailed.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
