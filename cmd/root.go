package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsim/app"
	"github.com/kilianp07/fieldsim/config"
	"github.com/kilianp07/fieldsim/core/dispatch"
	"github.com/kilianp07/fieldsim/infra/logger"
	"github.com/kilianp07/fieldsim/pkg/export"
)

var (
	cfgPath       string
	eventsJSON    string
	eventsCSV     string
	eventsGeoJSON string
	unfilledCSV   string
)

var rootCmd = &cobra.Command{
	Use:          "fieldsim",
	Short:        "Field maintenance dispatch simulator",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVar(&eventsJSON, "events-json", "", "write the timeline as JSON to this file")
	rootCmd.Flags().StringVar(&eventsCSV, "events-csv", "", "write the timeline as CSV to this file")
	rootCmd.Flags().StringVar(&eventsGeoJSON, "events-geojson", "", "write the timeline as GeoJSON to this file")
	rootCmd.Flags().StringVar(&unfilledCSV, "unfilled-csv", "", "write unfilled tickets as CSV to this file")
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
	rep, err := svc.Run(ctx)
	if rep != nil {
		printSummary(cmd.OutOrStdout(), rep)
	}
	if err != nil {
		return err
	}
	events := svc.Timeline().All()
	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{eventsJSON, func(w io.Writer) error { return export.WriteJSON(w, events) }},
		{eventsCSV, func(w io.Writer) error { return export.WriteCSV(w, events) }},
		{eventsGeoJSON, func(w io.Writer) error { return export.WriteGeoJSON(w, events) }},
		{unfilledCSV, func(w io.Writer) error { return export.WriteUnfilledCSV(w, rep.Unfilled) }},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, o.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printSummary(out io.Writer, rep *dispatch.Report) {
	s := rep.Summary
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", rep.RunID)
	fmt.Fprintf(tw, "tickets considered\t%d\n", s.Considered)
	fmt.Fprintf(tw, "dispatched\t%d\n", s.Dispatched)
	fmt.Fprintf(tw, "completed\t%d\n", s.Completed)
	reasons := make([]string, 0, len(s.Unfilled))
	for r := range s.Unfilled {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(tw, "unfilled (%s)\t%d\n", r, s.Unfilled[dispatch.Reason(r)])
	}
	fmt.Fprintf(tw, "mean distance\t%.1f km (sd %.1f)\n", s.MeanDistanceKM, s.StdDevDistanceKM)
	fmt.Fprintf(tw, "makespan\t%s\n", s.Makespan)
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(tw, "finished at\t%s\n", s.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}
