package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marovik/fleetopt/core/sensitivity"
	"github.com/marovik/fleetopt/infra/logger"
	"github.com/marovik/fleetopt/pkg/export"
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Sweep carbon prices and safety floors",
	RunE:  runSensitivity,
}

func init() {
	rootCmd.AddCommand(sensitivityCmd)
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, vessels, base, sol, err := loadInputs()
	if err != nil {
		return err
	}
	an, err := sensitivity.New(sol, cfg.Sensitivity.Options(), logger.New("sensitivity"))
	if err != nil {
		return err
	}
	curve, err := an.Curve(ctx, vessels, base)
	if err != nil {
		return err
	}
	if err := export.WriteCurveJSON(cmd.OutOrStdout(), "", curve); err != nil {
		return err
	}
	grid, err := an.Heatmap(ctx, vessels, base)
	if err != nil {
		return err
	}
	var delta *sensitivity.Delta
	if d, err := grid.BaselineDelta(); err == nil {
		delta = &d
	}
	return export.WriteHeatmapJSON(cmd.OutOrStdout(), "", grid, delta)
}
