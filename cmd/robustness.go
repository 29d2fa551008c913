package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marovik/fleetopt/core/robustness"
	"github.com/marovik/fleetopt/infra/logger"
	"github.com/marovik/fleetopt/pkg/export"
)

var robustnessCmd = &cobra.Command{
	Use:   "robustness",
	Short: "Sample the optimal fleet's composition stability",
	RunE:  runRobustness,
}

func init() {
	rootCmd.AddCommand(robustnessCmd)
}

func runRobustness(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, vessels, base, sol, err := loadInputs()
	if err != nil {
		return err
	}
	res, err := sol.Solve(ctx, vessels, base)
	if err != nil {
		return err
	}
	smp := robustness.New(cfg.Robustness.Options(), logger.New("robustness"))
	rep, err := smp.Sample(ctx, res.Fleet, vessels, base)
	if err != nil {
		return err
	}
	return export.WriteRobustnessJSON(cmd.OutOrStdout(), "", rep)
}
