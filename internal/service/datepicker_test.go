package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatePicker(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 44, 59, 0, time.UTC)

	p := NewDatePicker(now)

	assert.Equal(t, "30", p.Now.Minutes)
	assert.Equal(t, 3, p.Now.Hour)
	assert.Equal(t, "PM", p.Now.Period)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, p.Hours)
	assert.Equal(t, []string{"00", "15", "30", "45"}, p.Minutes)

	require.Len(t, p.Dates, 14)
	assert.Equal(t, "2026-10-18", p.Dates[0].Value)
	assert.Equal(t, "Sun 18th Oct 2026", p.Dates[0].Text)
	assert.Equal(t, "2026-10-31", p.Dates[13].Value)
	assert.Equal(t, "Sat 31st Oct 2026", p.Dates[13].Text)
}

func TestNewDatePicker_Midnight(t *testing.T) {
	p := NewDatePicker(time.Date(2026, 10, 18, 0, 7, 0, 0, time.UTC))

	assert.Equal(t, "00", p.Now.Minutes)
	assert.Equal(t, 0, p.Now.Hour, "twelve o'clock is reported as 0")
	assert.Equal(t, "AM", p.Now.Period)
}

func TestNewDatePicker_ConsecutiveAcrossDST(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	// Clocks go back on 25 Oct 2026; late evening is where 24h-stepping breaks.
	now := time.Date(2026, 10, 20, 23, 50, 0, 0, london)

	p := NewDatePicker(now)

	require.Len(t, p.Dates, 14)
	prev, err := time.Parse("2006-01-02", p.Dates[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", p.Dates[0].Value, "first entry is today in the session zone")
	for _, d := range p.Dates[1:] {
		cur, err := time.Parse("2006-01-02", d.Value)
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 0, 1), cur)
		prev = cur
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd", 30: "30th", 31: "31st",
	}
	for n, want := range cases {
		assert.Equal(t, want, ordinal(n))
	}
}
