package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, time.October, 17, 23, 59, 59, 999, time.UTC)
	got := StartOfDay(in)
	if !got.Equal(date(2026, time.October, 17)) {
		t.Errorf("StartOfDay() = %v, want midnight of the same day", got)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{name: "plain", from: date(2026, time.October, 17), want: date(2027, time.January, 17)},
		{name: "year rollover", from: date(2026, time.December, 5), want: date(2027, time.March, 5)},
		{name: "31st into 30-day month", from: date(2026, time.March, 31), want: date(2026, time.July, 1)},
		{name: "30th into short february", from: date(2026, time.November, 30), want: date(2027, time.March, 2)},
		{name: "30th into leap february", from: date(2027, time.November, 30), want: date(2028, time.March, 1)},
		{name: "31st into 31-day month", from: date(2026, time.October, 31), want: date(2027, time.January, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.from, HorizonMonths)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%s) = %s, want %s", ISODate(tt.from), ISODate(got), ISODate(tt.want))
			}
		})
	}
}

func TestWindowAt(t *testing.T) {
	now := time.Date(2026, time.October, 17, 15, 30, 0, 0, time.UTC)
	w := WindowAt(now)

	if !w.Min.Equal(date(2026, time.October, 17)) {
		t.Errorf("Min = %v, want 2026-10-17", w.Min)
	}
	if !w.Max.Equal(date(2027, time.January, 17)) {
		t.Errorf("Max = %v, want 2027-01-17", w.Max)
	}
	if w.String() != "2026-10-17..2027-01-17" {
		t.Errorf("String() = %q", w.String())
	}
}

func TestWindow_Contains(t *testing.T) {
	w := WindowAt(time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		d    time.Time
		want bool
	}{
		{name: "yesterday", d: date(2026, time.October, 16), want: false},
		{name: "today midnight", d: date(2026, time.October, 17), want: true},
		{name: "today late evening", d: time.Date(2026, time.October, 17, 23, 0, 0, 0, time.UTC), want: true},
		{name: "upper bound", d: date(2027, time.January, 17), want: true},
		{name: "upper bound afternoon", d: time.Date(2027, time.January, 17, 18, 0, 0, 0, time.UTC), want: true},
		{name: "day after upper bound", d: date(2027, time.January, 18), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.d); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatting(t *testing.T) {
	d := date(2027, time.January, 5)
	if got := ISODate(d); got != "2027-01-05" {
		t.Errorf("ISODate() = %q", got)
	}
	if got := DisplayDate(d); got != "05/01/2027" {
		t.Errorf("DisplayDate() = %q", got)
	}
}

func TestParseISODate(t *testing.T) {
	got, err := ParseISODate("2026-11-02", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(date(2026, time.November, 2)) {
		t.Errorf("ParseISODate() = %v", got)
	}

	for _, bad := range []string{"", "02/11/2026", "2026-13-01", "2026-02-30"} {
		if _, err := ParseISODate(bad, time.UTC); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestFixed(t *testing.T) {
	at := date(2026, time.October, 17)
	if got := Fixed(at)(); !got.Equal(at) {
		t.Errorf("Fixed() = %v, want %v", got, at)
	}
}
