package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marovik/fleetopt/core/solver"
	"github.com/marovik/fleetopt/pkg/export"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the exact fleet selection and print the result",
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, vessels, base, sol, err := loadInputs()
	if err != nil {
		return err
	}
	res, err := sol.Solve(ctx, vessels, base)
	if errors.Is(err, solver.ErrInfeasible) {
		fmt.Fprintln(cmd.ErrOrStderr(), "no feasible fleet for the configured constraints")
		return export.WriteFleetJSON(cmd.OutOrStdout(), "", res)
	}
	if err != nil {
		return err
	}
	return export.WriteFleetJSON(cmd.OutOrStdout(), "", res)
}
