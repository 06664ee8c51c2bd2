package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayouts are the unambiguous layouts accepted for ticket times and
// simulation bounds.
var TimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Slash dates are ambiguous: 03/01/2024 is March 1st month-first and
// January 3rd day-first.
var (
	MonthFirstLayouts = []string{"01/02/2006 15:04:05", "01/02/2006 15:04", "01/02/2006"}
	DayFirstLayouts   = []string{"02/01/2006 15:04:05", "02/01/2006 15:04", "02/01/2006"}
)

// ParseTime parses s with TimeLayouts, then reads slash dates month-first and
// falls back to day-first when the month would be out of range. Layouts
// without a zone are interpreted in UTC.
func ParseTime(s string) (time.Time, error) {
	return parseTime(s, TimeLayouts, MonthFirstLayouts, DayFirstLayouts)
}

// ParseTimeDayFirst is ParseTime with day-first slash dates preferred.
func ParseTimeDayFirst(s string) (time.Time, error) {
	return parseTime(s, TimeLayouts, DayFirstLayouts, MonthFirstLayouts)
}

func parseTime(s string, groups ...[]string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layouts := range groups {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
