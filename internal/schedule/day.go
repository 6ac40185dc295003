package schedule

import (
	"sort"
	"time"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

type Slot struct {
	Time        string              `json:"time"`
	Appointment *models.Appointment `json:"appointment,omitempty"`
}

type DayView struct {
	Date         string               `json:"date"`
	Prev         string               `json:"prev"`
	Next         string               `json:"next"`
	Slots        []Slot               `json:"slots"`
	Appointments []models.Appointment `json:"appointments"`
}

// BuildDay assembles the grid and the list view for one date. appts is
// expected to hold that date's appointments; others are dropped.
func BuildDay(date time.Time, appts []models.Appointment, viewer Viewer, selectedDoctorID string, doctors []models.Doctor) DayView {
	day := FormatDate(date)
	sameDay := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Date == day {
			sameDay = append(sameDay, a)
		}
	}
	filtered := FilterAppointments(sameDay, viewer, selectedDoctorID, doctors)

	times := GenerateTimeSlots()
	slots := make([]Slot, len(times))
	for i, t := range times {
		slots[i] = Slot{Time: t}
		if a, ok := AppointmentForSlot(filtered, t); ok {
			slots[i].Appointment = &a
		}
	}

	list := make([]models.Appointment, len(filtered))
	copy(list, filtered)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Time < list[j].Time })

	return DayView{
		Date:         day,
		Prev:         FormatDate(ChangeDate(date, -1)),
		Next:         FormatDate(ChangeDate(date, 1)),
		Slots:        slots,
		Appointments: list,
	}
}

// Overlaps reports whether a and b are on the same date for the same doctor
// and their [time, time+duration) intervals intersect.
func Overlaps(a, b models.Appointment) bool {
	if a.Date != b.Date || a.DoctorID != b.DoctorID {
		return false
	}
	aStart, err := minutesOf(a.Time)
	if err != nil {
		return false
	}
	bStart, err := minutesOf(b.Time)
	if err != nil {
		return false
	}
	return aStart < bStart+durationOf(b) && bStart < aStart+durationOf(a)
}

func durationOf(a models.Appointment) int {
	if a.DurationMinutes <= 0 {
		return SlotMinutes
	}
	return a.DurationMinutes
}

// FindConflict returns the first appointment in existing that overlaps
// candidate, skipping candidate itself.
func FindConflict(candidate models.Appointment, existing []models.Appointment) (models.Appointment, bool) {
	for _, e := range existing {
		if !candidate.ID.IsZero() && e.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, e) {
			return e, true
		}
	}
	return models.Appointment{}, false
}
