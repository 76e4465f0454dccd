package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"wolontariat/config"
	"wolontariat/internal/app"
	"wolontariat/internal/enrollment"
	"wolontariat/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	asJSON     bool
	a          *app.App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair enrollments left half-finished by failed signups or cancellations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.Close(context.Background())
				_ = a.Log.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.prod.yml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(volunteerCmd())
	rootCmd.AddCommand(offerCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func initApp(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err = app.New(ctx, cfg, logger)
	return err
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile every volunteer and every roster entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.Coordinator.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
}

func volunteerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volunteer <volunteer_id>",
		Short: "Reconcile all enrollments of one volunteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.Coordinator.ReconcileVolunteer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
}

func offerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offer <offer_id> <volunteer_id>",
		Short: "Reconcile a single enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.Coordinator.Reconcile(cmd.Context(), args[1], args[0])
			if result != nil {
				fmt.Printf("%s / %s: %s\n", result.OfferID, result.VolunteerID, result.State)
			}
			if err != nil {
				a.Log.Warn("reconcile finished with error", zap.Error(err))
			}
			return err
		},
	}
}

func printReport(report *enrollment.SweepReport) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Printf("\nChecked:  %d\nRepaired: %d\nFailed:   %d\n", report.Checked, report.Repaired, report.Failed)
	for _, e := range report.Errors {
		fmt.Printf("  - %s\n", e)
	}
	fmt.Println()
	if report.Failed > 0 {
		return fmt.Errorf("%d enrollments could not be repaired", report.Failed)
	}
	return nil
}
