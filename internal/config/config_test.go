package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapay-ai/aws-billing-alerts/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "🏦 AWS Billing Alert", cfg.Alert.Header)
	assert.Equal(t, 10, cfg.Alert.TopServices)
	assert.InDelta(t, 0.01, cfg.Alert.MinCost, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Webhook.URL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
webhook:
  url: https://hooks.slack.com/services/T/B/X
alert:
  header: Production Spend
  top_services: 5
logging:
  level: debug
  format: text
`)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.slack.com/services/T/B/X", cfg.Webhook.URL)
	assert.Equal(t, "Production Spend", cfg.Alert.Header)
	assert.Equal(t, 5, cfg.Alert.TopServices)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "https://hooks.slack.com/services/T/B/Y")
	t.Setenv("AWS_BILLING_REGION", "eu-west-1")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.slack.com/services/T/B/Y", cfg.Webhook.URL)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), config.ErrWebhookURLRequired)

	cfg.Webhook.URL = "https://hooks.slack.com/services/T/B/Z"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}
