package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/spf13/cobra"

	"github.com/yapay-ai/aws-billing-alerts/internal/config"
	"github.com/yapay-ai/aws-billing-alerts/pkg/alerts"
	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "billing-alerts",
	Short: "AWS billing alerts - month-to-date cost summaries for Slack",
	Long: `billing-alerts queries AWS Cost Explorer for month-to-date spend,
aggregates cost by service, and posts a summary to a Slack webhook.
In production it runs as a scheduled Lambda; this CLI runs the same
pipeline from a workstation.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// newRetriever builds a Cost Explorer backed retriever from the ambient AWS
// credential chain.
func newRetriever(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*billing.Retriever, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return billing.NewRetriever(costexplorer.NewFromConfig(awsCfg), cfg.Alert.MinCost, logger), nil
}

// newNotifiers creates alert notifiers from config.
func newNotifiers(cfg *config.Config, logger *slog.Logger) []alerts.Notifier {
	return []alerts.Notifier{
		alerts.NewSlackNotifier(cfg.Webhook.URL, cfg.Alert.Header, cfg.Alert.TopServices, logger),
	}
}
