package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yapay-ai/aws-billing-alerts/pkg/billing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch month-to-date costs and post the alert",
	Long:  `Query Cost Explorer for the current billing period and deliver the summary to the configured webhook.`,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Print the summary instead of posting to the webhook")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := newLogger(cfg)

	retriever, err := newRetriever(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	period := billing.MonthToDate(time.Now())
	summary, err := retriever.Retrieve(cmd.Context(), period)
	if err != nil {
		return fmt.Errorf("retrieve billing data: %w", err)
	}

	if dryRun {
		printSummary(summary)
		return nil
	}

	for _, n := range newNotifiers(cfg, logger) {
		if err := n.Send(cmd.Context(), *summary); err != nil {
			return err
		}
	}

	fmt.Printf("Billing alert sent. Total cost: $%.2f\n", summary.TotalCost)
	return nil
}

func printSummary(summary *billing.Summary) {
	fmt.Printf("=== AWS Billing Summary ===\n")
	fmt.Printf("Period:     %s\n", summary.Period)
	fmt.Printf("Total Cost: $%.2f\n\n", summary.TotalCost)

	if len(summary.ServiceCosts) == 0 {
		fmt.Println("No services above the cost floor.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SERVICE\tCOST\n")
	for _, sc := range summary.ServiceCosts {
		fmt.Fprintf(w, "%s\t$%.2f\n", sc.Service, sc.Cost)
	}
	w.Flush()
}
