package timeline

import (
	"math"
	"time"
)

// Mapper converts between virtual clock values and wall-clock timestamps:
// wall = Start + clock*Speed seconds.
type Mapper struct {
	Start time.Time
	Speed float64
}

// Time returns the wall-clock timestamp of a clock value.
func (m Mapper) Time(clock float64) time.Time {
	return m.Start.Add(time.Duration(math.Round(clock * m.Speed * float64(time.Second))))
}

// Clock returns the clock value of a wall-clock timestamp. Timestamps before
// Start yield negative values.
func (m Mapper) Clock(t time.Time) float64 {
	return t.Sub(m.Start).Seconds() / m.Speed
}

// Delay converts a simulated duration into virtual clock units.
func (m Mapper) Delay(d time.Duration) float64 {
	return d.Seconds() / m.Speed
}
