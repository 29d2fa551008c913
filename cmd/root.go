// Package cmd defines the fleetopt command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marovik/fleetopt/app"
	"github.com/marovik/fleetopt/catalog"
	"github.com/marovik/fleetopt/config"
	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/events"
	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/core/solver"
	"github.com/marovik/fleetopt/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "fleetopt",
	Short: "Fleet selection and robustness analysis engine",
	Long: "fleetopt selects the cheapest vessel fleet meeting a bulk-transport demand\n" +
		"and characterizes the selection: safety frontier, cost attribution,\n" +
		"composition robustness and carbon price sensitivity.",
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	go logEvents(ctx, svc)
	return svc.Run(ctx)
}

// logEvents mirrors pipeline events to the debug log.
func logEvents(ctx context.Context, svc *app.Service) {
	log := logger.New("events")
	sub := svc.Bus().Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			log.Debugw("pipeline event", map[string]any{"event": fmt.Sprintf("%T", ev), "detail": ev})
			if st, ok := ev.(events.StageEvent); ok && st.Action == "failed" {
				log.Warnf("stage %s failed after %s: %v", st.Stage, st.Runtime, st.Err)
			}
		}
	}
}

// loadInputs performs the shared subcommand setup: configuration, catalog,
// baseline repricing and a bounded solver.
func loadInputs() (*config.Config, []model.Vessel, model.ConstraintConfig, *solver.Solver, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, model.ConstraintConfig{}, nil, fmt.Errorf("load config: %w", err)
	}
	vessels, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, model.ConstraintConfig{}, nil, err
	}
	base := cfg.Constraints.ToModel()
	vessels = costmodel.Reprice(vessels, base.CarbonPriceUSD)
	sol := solver.New(cfg.Solver.Options(), logger.New("solver"))
	return cfg, vessels, base, sol, nil
}
