// README: Billing clock tests.
package ride

import (
	"testing"
	"time"
)

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &Ride{StartedAt: start}

	cases := []struct {
		after time.Duration
		want  int
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Second, 1},
		{59 * time.Second, 1},
		{time.Minute, 1},
		{time.Minute + time.Nanosecond, 2},
		{90 * time.Second, 2},
		{10 * time.Minute, 10},
		{10*time.Minute + time.Second, 11},
	}
	for _, tc := range cases {
		if got := r.ElapsedMinutes(start.Add(tc.after)); got != tc.want {
			t.Errorf("ElapsedMinutes(+%v) = %d, want %d", tc.after, got, tc.want)
		}
	}
}
