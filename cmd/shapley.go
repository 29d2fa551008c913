package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marovik/fleetopt/core/shapley"
	"github.com/marovik/fleetopt/infra/logger"
	"github.com/marovik/fleetopt/pkg/export"
)

var shapleyCmd = &cobra.Command{
	Use:   "shapley",
	Short: "Attribute the optimal fleet's cost to its vessels",
	RunE:  runShapley,
}

func init() {
	rootCmd.AddCommand(shapleyCmd)
}

func runShapley(cmd *cobra.Command, args []string) error {
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
	est := shapley.New(cfg.Shapley.Options(), logger.New("shapley"))
	rep, err := est.Estimate(ctx, res.Fleet, vessels, base)
	if err != nil {
		return err
	}
	return export.WriteShapleyJSON(cmd.OutOrStdout(), "", rep)
}
