package schedule

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

var (
	perez = models.Doctor{ID: primitive.NewObjectID(), Name: "Dr. Pérez"}
	ramos = models.Doctor{ID: primitive.NewObjectID(), Name: "Dra. Ramos"}
)

func appt(t, date string, doc models.Doctor, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{
		ID:              primitive.NewObjectID(),
		Date:            date,
		Time:            t,
		PatientName:     "Ana Torres",
		DoctorID:        doc.ID,
		DoctorName:      doc.Name,
		DurationMinutes: 30,
		Status:          status,
	}
}

func TestGenerateTimeSlots(t *testing.T) {
	slots := GenerateTimeSlots()
	if len(slots) != 40 {
		t.Fatalf("expected 40 slots, got %d", len(slots))
	}
	if slots[0] != "08:00" {
		t.Errorf("first slot: got %s", slots[0])
	}
	if slots[len(slots)-1] != "17:45" {
		t.Errorf("last slot: got %s", slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		prev, _ := time.Parse(TimeLayout, slots[i-1])
		cur, _ := time.Parse(TimeLayout, slots[i])
		if cur.Sub(prev) != 15*time.Minute {
			t.Fatalf("step between %s and %s is %v", slots[i-1], slots[i], cur.Sub(prev))
		}
	}
}

func TestValidSlot(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"08:00", true},
		{"17:45", true},
		{"09:30", true},
		{"07:45", false},
		{"18:00", false},
		{"09:10", false},
		{"9:30", false},
		{"9:00", false},
		{"09:5", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidSlot(tt.in); got != tt.want {
			t.Errorf("ValidSlot(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestChangeDate(t *testing.T) {
	d := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	if got := ChangeDate(ChangeDate(d, 1), -1); !got.Equal(d) {
		t.Errorf("round trip: got %v", got)
	}

	tests := []struct {
		from  string
		delta int
		want  string
	}{
		{"2025-08-31", 1, "2025-09-01"},
		{"2025-12-31", 1, "2026-01-01"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2025-08-01", -365, "2024-08-01"},
	}
	for _, tt := range tests {
		from, err := ParseDate(tt.from)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.from, err)
		}
		if got := FormatDate(ChangeDate(from, tt.delta)); got != tt.want {
			t.Errorf("ChangeDate(%s, %d) = %s, want %s", tt.from, tt.delta, got, tt.want)
		}
	}
}

func TestFilterAppointmentsDoctor(t *testing.T) {
	list := []models.Appointment{
		appt("09:30", "2025-08-01", perez, models.StatusConfirmed),
		appt("11:00", "2025-08-01", ramos, models.StatusPending),
	}
	viewer := Viewer{UserID: perez.ID, Role: models.RoleDoctor}

	// selector is ignored for doctors
	got := FilterAppointments(list, viewer, ramos.ID.Hex(), []models.Doctor{perez, ramos})
	if len(got) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(got))
	}
	for _, a := range got {
		if a.DoctorID != perez.ID {
			t.Errorf("doctor saw appointment for %s", a.DoctorName)
		}
	}
}

func TestFilterAppointmentsStaff(t *testing.T) {
	list := []models.Appointment{
		appt("09:30", "2025-08-01", perez, models.StatusConfirmed),
		appt("11:00", "2025-08-01", ramos, models.StatusPending),
	}
	doctors := []models.Doctor{perez, ramos}

	tests := []struct {
		name     string
		role     models.Role
		selected string
		want     int
	}{
		{"secretary all", models.RoleSecretary, "all", 2},
		{"owner empty selector", models.RoleOwner, "", 2},
		{"secretary one doctor", models.RoleSecretary, ramos.ID.Hex(), 1},
		{"unknown doctor id", models.RoleSecretary, primitive.NewObjectID().Hex(), 0},
		{"malformed doctor id", models.RoleOwner, "2", 0},
		{"unknown role", models.Role("PATIENT"), "all", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAppointments(list, Viewer{Role: tt.role}, tt.selected, doctors)
			if len(got) != tt.want {
				t.Errorf("expected %d, got %d", tt.want, len(got))
			}
		})
	}
}

func TestFilterScenarioSecretaryOtherDoctor(t *testing.T) {
	list := []models.Appointment{appt("09:30", "2025-08-01", perez, models.StatusConfirmed)}
	got := FilterAppointments(list, Viewer{Role: models.RoleSecretary}, ramos.ID.Hex(), []models.Doctor{perez, ramos})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestAppointmentForSlot(t *testing.T) {
	first := appt("09:30", "2025-08-01", perez, models.StatusConfirmed)
	dup := appt("09:30", "2025-08-01", perez, models.StatusPending)
	filtered := FilterAppointments([]models.Appointment{first, dup}, Viewer{UserID: perez.ID, Role: models.RoleDoctor}, "", nil)

	got, ok := AppointmentForSlot(filtered, "09:30")
	if !ok {
		t.Fatal("expected appointment at 09:30")
	}
	if got.ID != first.ID {
		t.Error("first appointment in list order should win")
	}
	if _, ok := AppointmentForSlot(filtered, "09:00"); ok {
		t.Error("expected no appointment at 09:00")
	}
	for _, slot := range GenerateTimeSlots() {
		if slot == "09:30" {
			continue
		}
		if _, ok := AppointmentForSlot(filtered, slot); ok {
			t.Errorf("unexpected appointment at %s", slot)
		}
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to models.AppointmentStatus
		ok       bool
	}{
		{models.StatusPending, models.StatusConfirmed, true},
		{models.StatusPending, models.StatusNoShow, true},
		{models.StatusConfirmed, models.StatusAttended, true},
		{models.StatusConfirmed, models.StatusNoShow, true},
		{models.StatusPending, models.StatusAttended, false},
		{models.StatusPending, models.StatusPending, false},
		{models.StatusAttended, models.StatusPending, false},
		{models.StatusNoShow, models.StatusConfirmed, false},
		{models.StatusConfirmed, models.StatusPending, false},
	}
	for _, tt := range tests {
		got, err := Transition(tt.from, tt.to)
		if tt.ok {
			if err != nil || got != tt.to {
				t.Errorf("%s -> %s: got %s, %v", tt.from, tt.to, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
		if got != tt.from {
			t.Errorf("%s -> %s: status changed to %s on rejection", tt.from, tt.to, got)
		}
	}

	if _, err := Transition(models.StatusPending, "Cancelled"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestBuildDay(t *testing.T) {
	date, _ := ParseDate("2025-08-01")
	list := []models.Appointment{
		appt("11:00", "2025-08-01", perez, models.StatusPending),
		appt("09:30", "2025-08-01", perez, models.StatusConfirmed),
		appt("10:00", "2025-08-01", ramos, models.StatusPending),
		appt("09:30", "2025-08-02", perez, models.StatusPending),
	}

	view := BuildDay(date, list, Viewer{UserID: perez.ID, Role: models.RoleDoctor}, "all", []models.Doctor{perez, ramos})
	if view.Date != "2025-08-01" || view.Prev != "2025-07-31" || view.Next != "2025-08-02" {
		t.Errorf("navigation: %s %s %s", view.Prev, view.Date, view.Next)
	}
	if len(view.Slots) != 40 {
		t.Fatalf("expected 40 slots, got %d", len(view.Slots))
	}
	booked := 0
	for _, s := range view.Slots {
		if s.Appointment != nil {
			booked++
		}
	}
	if booked != 2 {
		t.Errorf("expected 2 booked slots, got %d", booked)
	}
	if len(view.Appointments) != 2 || view.Appointments[0].Time != "09:30" {
		t.Errorf("list view not sorted by time: %+v", view.Appointments)
	}
}

func TestOverlaps(t *testing.T) {
	base := appt("09:00", "2025-08-01", perez, models.StatusPending)
	base.DurationMinutes = 60

	tests := []struct {
		name string
		b    models.Appointment
		want bool
	}{
		{"same start", appt("09:00", "2025-08-01", perez, models.StatusPending), true},
		{"inside", appt("09:30", "2025-08-01", perez, models.StatusPending), true},
		{"adjacent", appt("10:00", "2025-08-01", perez, models.StatusPending), false},
		{"other doctor", appt("09:00", "2025-08-01", ramos, models.StatusPending), false},
		{"other day", appt("09:00", "2025-08-02", perez, models.StatusPending), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(base, tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, ok := FindConflict(base, []models.Appointment{base}); ok {
		t.Error("appointment should not conflict with itself")
	}
}
