package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	monday := date(2026, time.January, 5)

	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"zero days keeps the date", monday, 0, monday},
		{"within the week", monday, 3, date(2026, time.January, 8)},
		{"friday rolls over the weekend", date(2026, time.January, 9), 1, date(2026, time.January, 12)},
		{"saturday start", date(2026, time.January, 10), 1, date(2026, time.January, 12)},
		{"two full weeks", monday, 10, date(2026, time.January, 19)},
		{"time of day is dropped", monday.Add(17 * time.Hour), 1, date(2026, time.January, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddBusinessDays(tt.start, tt.n))
		})
	}
}

func TestBusinessDaysBetweenInvertsAdd(t *testing.T) {
	start := date(2026, time.January, 7)
	for n := 0; n < 15; n++ {
		assert.Equal(t, n, BusinessDaysBetween(start, AddBusinessDays(start, n)))
	}
	assert.Equal(t, 0, BusinessDaysBetween(start, start.AddDate(0, 0, -3)))
}
