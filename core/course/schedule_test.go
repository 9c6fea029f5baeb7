package course

import (
	"testing"
	"time"
)

func TestClassDates(t *testing.T) {
	tests := []struct {
		name       string
		start, end Date
		days       []time.Weekday
		wantCount  int
	}{
		{
			name:  "mon wed fri over four weeks",
			start: NewDate(2026, time.January, 5), // a Monday
			end:   NewDate(2026, time.February, 1),
			days:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			// 4 full Mon-Fri weeks: 4 * 3
			wantCount: 12,
		},
		{
			name:      "single day in range",
			start:     NewDate(2026, time.January, 5),
			end:       NewDate(2026, time.January, 5),
			days:      []time.Weekday{time.Monday},
			wantCount: 1,
		},
		{
			name:      "weekday never occurs",
			start:     NewDate(2026, time.January, 5),
			end:       NewDate(2026, time.January, 9),
			days:      []time.Weekday{time.Sunday},
			wantCount: 0,
		},
		{
			name:      "end before start",
			start:     NewDate(2026, time.January, 9),
			end:       NewDate(2026, time.January, 5),
			days:      []time.Weekday{time.Monday},
			wantCount: 0,
		},
		{
			name:      "every day",
			start:     NewDate(2026, time.January, 1),
			end:       NewDate(2026, time.January, 31),
			days:      []time.Weekday{0, 1, 2, 3, 4, 5, 6},
			wantCount: 31,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := ClassDates(tt.start, tt.end, tt.days)
			if len(dates) != tt.wantCount {
				t.Fatalf("ClassDates() returned %d dates, want %d", len(dates), tt.wantCount)
			}

			set := make(map[time.Weekday]bool)
			for _, d := range tt.days {
				set[d] = true
			}
			for i, d := range dates {
				if !set[d.Weekday()] {
					t.Errorf("dates[%d] = %s falls on %s, not a class day", i, d, d.Weekday())
				}
				if d.Before(tt.start.Time) || d.After(tt.end.Time) {
					t.Errorf("dates[%d] = %s out of range", i, d)
				}
				if i > 0 && !dates[i-1].Before(d.Time) {
					t.Errorf("dates not strictly increasing at %d: %s >= %s", i, dates[i-1], d)
				}
			}
		})
	}
}
