package intake

import "testing"

func TestParseActivityWindow(t *testing.T) {
	cases := []struct {
		name       string
		date, time string
		start, end string
		ok         bool
	}{
		{"range", "01.09.2026", "10:00-12:30", "2026-09-01T10:00:00", "2026-09-01T12:30:00", true},
		{"single time", "01.09.2026", "10:00", "2026-09-01T10:00:00", "2026-09-01T10:00:00", true},
		{"one digit hour", "15.10.2026", "9:30", "2026-10-15T9:30:00", "2026-10-15T9:30:00", true},
		{"date inside text", "желательно 01.09.2026", "10:00", "2026-09-01T10:00:00", "2026-09-01T10:00:00", true},
		{"wrong date separator", "01/09/2026", "10:00", "", "", false},
		{"no time digits", "01.09.2026", "утром", "", "", false},
		{"empty date", "", "10:00", "", "", false},
		{"empty time", "01.09.2026", "", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := ParseActivityWindow(tc.date, tc.time)
			if ok != tc.ok || start != tc.start || end != tc.end {
				t.Fatalf("ParseActivityWindow(%q, %q) = (%q, %q, %v), want (%q, %q, %v)",
					tc.date, tc.time, start, end, ok, tc.start, tc.end, tc.ok)
			}
		})
	}
}
