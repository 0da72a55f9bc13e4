package models

import "time"

// TimeWindow is the inclusive merge-time range a report covers
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow returns the window from the start of the day lookbackDays
// before now up to the start of tomorrow, both at UTC midnight of the
// calendar dates as seen in now's location.
func NewTimeWindow(now time.Time, lookbackDays int) TimeWindow {
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return TimeWindow{
		Start: today.AddDate(0, 0, -lookbackDays),
		End:   today.AddDate(0, 0, 1),
	}
}

// Contains reports whether t lies within the window, both ends inclusive
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w TimeWindow) String() string {
	return w.Start.Format(WireTimeFormat) + " - " + w.End.Format(WireTimeFormat)
}
