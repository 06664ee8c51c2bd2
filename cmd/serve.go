package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsim/app"
	"github.com/kilianp07/fieldsim/config"
	"github.com/kilianp07/fieldsim/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and serve the playback API until interrupted",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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
	if err := svc.Serve(ctx); err != nil {
		return err
	}
	if rep := svc.Report(); rep != nil {
		printSummary(cmd.OutOrStdout(), rep)
	}
	return nil
}
