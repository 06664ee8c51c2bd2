package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/fieldsim/core/dispatch"
)

func TestParseLatLon(t *testing.T) {
	c, err := parseLatLon(" -23.55, -46.63")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Lat != -23.55 || c.Lon != -46.63 {
		t.Fatalf("unexpected coordinate %+v", c)
	}
	for _, bad := range []string{"1", "a,b", "91,0", "0,181"} {
		if _, err := parseLatLon(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &dispatch.Report{
		RunID: "r1",
		Summary: dispatch.Summary{
			Considered:     3,
			Dispatched:     2,
			Completed:      2,
			Unfilled:       map[dispatch.Reason]int{dispatch.ReasonUnknownSite: 1},
			MeanDistanceKM: 12.34,
			Makespan:       90 * time.Minute,
			FinishedAt:     time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		},
	})
	out := buf.String()
	for _, want := range []string{"r1", "unfilled (unknown_site)", "12.3 km", "1h30m0s", "2024-01-01 09:30:00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
