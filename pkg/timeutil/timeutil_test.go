package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToLagos(t *testing.T) {
	utc := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	lagos := ToLagos(utc)

	assert.Equal(t, 0, lagos.Hour())
	assert.Equal(t, 30, lagos.Minute())
	assert.Equal(t, 11, lagos.Day(), "23:30 UTC is already the next Lagos day")
}

func TestStartAndEndOfDay(t *testing.T) {
	ts := DateTime(2025, 3, 10, 14, 45, 12)

	start := StartOfDay(ts)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 10, start.Day())

	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 10, end.Day())
}

func TestFormatHuman(t *testing.T) {
	ts := DateTime(2025, 3, 10, 14, 5, 0)
	assert.Equal(t, "March 10, 2025 at 02:05 PM", FormatHuman(ts))
}

func TestFormatRelative(t *testing.T) {
	now := DateTime(2025, 3, 10, 12, 0, 0)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds away", now.Add(20 * time.Second), "in moments"},
		{"fifteen minutes", now.Add(15 * time.Minute), "in 15 minutes"},
		{"one minute", now.Add(1 * time.Minute), "in 1 minute"},
		{"two hours", now.Add(2 * time.Hour), "in 2 hours"},
		{"three days", now.Add(72 * time.Hour), "in 3 days"},
		{"past hours", now.Add(-5 * time.Hour), "5 hours ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRelative(tt.t, now))
		})
	}
}

func TestIsSameDay(t *testing.T) {
	a := DateTime(2025, 3, 10, 0, 10, 0)
	b := DateTime(2025, 3, 10, 23, 50, 0)
	c := DateTime(2025, 3, 11, 0, 10, 0)

	assert.True(t, IsSameDay(a, b))
	assert.False(t, IsSameDay(a, c))
}
