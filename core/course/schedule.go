package course

import "time"

// ClassDates enumerates every date in [start, end] (inclusive) whose weekday
// is in days. The result is strictly increasing and deterministic.
func ClassDates(start, end Date, days []time.Weekday) []Date {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}

	var dates []Date
	for d := start.Time; !d.After(end.Time); d = d.AddDate(0, 0, 1) {
		if set[d.Weekday()] {
			dates = append(dates, Date{d})
		}
	}
	return dates
}
