// Package schedule builds the single-day agenda: the fixed grid of
// fifteen-minute slots, the viewer-scoped appointment list, and the
// appointment status machine.
package schedule

import (
	"fmt"
	"time"
)

const (
	DayStartHour = 8
	DayEndHour   = 18
	SlotMinutes  = 15

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// GenerateTimeSlots returns the business-hours grid, 08:00 through 17:45.
func GenerateTimeSlots() []string {
	slots := make([]string, 0, (DayEndHour-DayStartHour)*60/SlotMinutes)
	for hour := DayStartHour; hour < DayEndHour; hour++ {
		for minute := 0; minute < 60; minute += SlotMinutes {
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return slots
}

// ValidSlot reports whether t is one of the generated slot times.
func ValidSlot(t string) bool {
	m, err := minutesOf(t)
	if err != nil {
		return false
	}
	return m >= DayStartHour*60 && m < DayEndHour*60 && m%SlotMinutes == 0
}

func ValidDuration(minutes int) bool {
	switch minutes {
	case 15, 30, 45, 60:
		return true
	}
	return false
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ChangeDate moves d by deltaDays calendar days. Month and year rollover
// follow time.AddDate; there are no bounds.
func ChangeDate(d time.Time, deltaDays int) time.Time {
	return d.AddDate(0, 0, deltaDays)
}

// minutesOf only accepts the zero-padded HH:MM form.
func minutesOf(t string) (int, error) {
	parsed, err := time.Parse(TimeLayout, t)
	if err != nil {
		return 0, err
	}
	if parsed.Format(TimeLayout) != t {
		return 0, fmt.Errorf("time %q is not in HH:MM form", t)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
