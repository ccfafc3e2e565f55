package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/yapay-ai/aws-billing-alerts/pkg/alerts"
	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

// ErrWebhookURLRequired is returned when no webhook destination is configured.
var ErrWebhookURLRequired = errors.New("webhook url is required (set WEBHOOK_URL)")

// Config holds all billing-alerts configuration.
type Config struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Alert   AlertConfig   `mapstructure:"alert"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// WebhookConfig defines the notification destination.
type WebhookConfig struct {
	URL string `mapstructure:"url"`
}

// AWSConfig defines Cost Explorer client settings.
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// AlertConfig defines message construction settings.
type AlertConfig struct {
	Header      string  `mapstructure:"header"`
	TopServices int     `mapstructure:"top_services"`
	MinCost     float64 `mapstructure:"min_cost"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. It does not
// require a webhook URL; callers that are about to deliver call Validate.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults. Cost Explorer is only served out of us-east-1.
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("alert.header", alerts.DefaultHeader)
	v.SetDefault("alert.top_services", alerts.DefaultTopServices)
	v.SetDefault("alert.min_cost", billing.DefaultMinCost)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables as set on the Lambda; these win over any file.
	_ = v.BindEnv("webhook.url", "WEBHOOK_URL")
	_ = v.BindEnv("aws.region", "AWS_BILLING_REGION")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a delivery.
func (c *Config) Validate() error {
	if c.Webhook.URL == "" {
		return ErrWebhookURLRequired
	}
	return nil
}
