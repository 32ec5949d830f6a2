package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/teamrsvp/internal/model"
)

// pickerDays is how many calendar days, starting today, the form offers.
const pickerDays = 14

// EventDateLayout renders an event's start in the viewer's timezone.
const EventDateLayout = "Mon, Jan 2, 2006 3:04 PM"

// NewDatePicker builds the picker for now, which must already be in the
// session's location.
func NewDatePicker(now time.Time) model.DatePicker {
	year, month, day := now.Date()
	loc := now.Location()

	dates := make([]model.PickerDate, 0, pickerDays)
	for i := 0; i < pickerDays; i++ {
		// Build each day from its calendar date rather than adding 24h, so
		// DST transitions can't skip or repeat a day.
		d := time.Date(year, month, day+i, 12, 0, 0, 0, loc)
		dates = append(dates, model.PickerDate{
			Value: d.Format("2006-01-02"),
			Text:  fmt.Sprintf("%s %s %s", d.Format("Mon"), ordinal(d.Day()), d.Format("Jan 2006")),
		})
	}

	hours := make([]int, 0, 12)
	for h := 1; h <= 12; h++ {
		hours = append(hours, h)
	}

	return model.DatePicker{
		Now: model.PickerTime{
			Minutes: fmt.Sprintf("%02d", now.Minute()/15*15),
			Hour:    now.Hour() % 12,
			Period:  now.Format("PM"),
		},
		Dates:   dates,
		Hours:   hours,
		Minutes: []string{"00", "15", "30", "45"},
	}
}

// ordinal renders 1 → "1st", 2 → "2nd", 11 → "11th", 22 → "22nd".
func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
