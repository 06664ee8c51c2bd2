package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsim/config"
	"github.com/kilianp07/fieldsim/core/model"
	"github.com/kilianp07/fieldsim/core/routing"
	"github.com/kilianp07/fieldsim/infra/logger"
)

var routeCmd = &cobra.Command{
	Use:   "route FROM_LAT,FROM_LON TO_LAT,TO_LON",
	Short: "Query the configured route oracle between two coordinates",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	from, err := parseLatLon(args[0])
	if err != nil {
		return err
	}
	to, err := parseLatLon(args[1])
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	oracle, err := routing.NewOracle(cfg.Routing, logger.New("routing"))
	if err != nil {
		return err
	}
	l, err := routing.Resolve(context.Background(), oracle, from, to)
	if err != nil {
		return fmt.Errorf("after %d attempts: %w", l.Attempts, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.3f km (backend %s, %d attempts, %s)\n",
		l.DistanceKM, cfg.Routing.Backend.Type, l.Attempts, l.Latency)
	return nil
}

func parseLatLon(s string) (model.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinate{}, fmt.Errorf("coordinate %q: want LAT,LON", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return model.Coordinate{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return model.Coordinate{Lat: lat, Lon: lon}, nil
}
