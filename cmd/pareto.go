package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marovik/fleetopt/core/pareto"
	"github.com/marovik/fleetopt/infra/logger"
	"github.com/marovik/fleetopt/pkg/export"
)

var paretoCmd = &cobra.Command{
	Use:   "pareto",
	Short: "Trace the cost versus safety frontier",
	RunE:  runPareto,
}

func init() {
	rootCmd.AddCommand(paretoCmd)
}

func runPareto(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, vessels, base, sol, err := loadInputs()
	if err != nil {
		return err
	}
	tracer, err := pareto.New(sol, cfg.Pareto.Options(), logger.New("pareto"))
	if err != nil {
		return err
	}
	frontier, err := tracer.Trace(ctx, vessels, base)
	if err != nil {
		return err
	}
	return export.WriteFrontierJSON(cmd.OutOrStdout(), "", frontier)
}
