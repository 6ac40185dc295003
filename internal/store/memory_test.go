package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestMemoryAppointments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := primitive.NewObjectID()

	for _, tm := range []string{"11:00", "09:30", "10:00"} {
		a := &models.Appointment{Date: "2025-08-01", Time: tm, DoctorID: doc, DurationMinutes: 30, Status: models.StatusPending}
		if err := s.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
		if a.ID.IsZero() || a.CreatedAt.IsZero() {
			t.Fatal("create should assign id and timestamps")
		}
	}
	other := &models.Appointment{Date: "2025-08-02", Time: "09:00", DoctorID: primitive.NewObjectID(), Status: models.StatusConfirmed}
	if err := s.CreateAppointment(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	day, err := s.ListAppointments(ctx, AppointmentFilter{Date: "2025-08-01"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(day) != 3 {
		t.Fatalf("expected 3, got %d", len(day))
	}
	if day[0].Time != "09:30" || day[2].Time != "11:00" {
		t.Errorf("not ordered by time: %s, %s, %s", day[0].Time, day[1].Time, day[2].Time)
	}

	byStatus, _ := s.ListAppointments(ctx, AppointmentFilter{Status: models.StatusConfirmed})
	if len(byStatus) != 1 || byStatus[0].ID != other.ID {
		t.Errorf("status filter: %+v", byStatus)
	}

	got, err := s.GetAppointment(ctx, other.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Status = models.StatusAttended
	if err := s.UpdateAppointment(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := s.GetAppointment(ctx, other.ID)
	if again.Status != models.StatusAttended {
		t.Errorf("status not persisted: %s", again.Status)
	}

	if err := s.DeleteAppointment(ctx, other.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetAppointment(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteAppointment(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryPatientsCopyOnRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := primitive.NewObjectID()

	p := &models.Patient{Name: "Ana Torres", DoctorID: doc}
	if err := s.CreatePatient(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.AddMedicalRecord(ctx, p.ID, models.MedicalRecord{Date: "2024-12-15", Diagnosis: "Control"}); err != nil {
		t.Fatalf("add record: %v", err)
	}

	got, _ := s.GetPatient(ctx, p.ID)
	got.MedicalHistory[0].Diagnosis = "mutated"
	fresh, _ := s.GetPatient(ctx, p.ID)
	if fresh.MedicalHistory[0].Diagnosis != "Control" {
		t.Error("store shares history slice with callers")
	}

	// updates keep history
	fresh.Phone = "11-0000-0000"
	fresh.MedicalHistory = nil
	if err := s.UpdatePatient(ctx, fresh); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, _ := s.GetPatient(ctx, p.ID)
	if after.Phone != "11-0000-0000" || len(after.MedicalHistory) != 1 {
		t.Errorf("update result: %+v", after)
	}

	mine, _ := s.ListPatients(ctx, PatientFilter{DoctorID: doc})
	if len(mine) != 1 {
		t.Errorf("expected 1 patient for doctor, got %d", len(mine))
	}
	none, _ := s.ListPatients(ctx, PatientFilter{DoctorID: primitive.NewObjectID()})
	if len(none) != 0 {
		t.Errorf("expected 0 patients, got %d", len(none))
	}

	if err := s.AddMedicalRecord(ctx, primitive.NewObjectID(), models.MedicalRecord{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &models.User{Name: "Dr. Pérez", Email: "juan.perez@clinica.com", Password: "hash", Role: models.RoleDoctor, Status: models.UserActive}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &models.User{Name: "Other", Email: "JUAN.PEREZ@clinica.com", Role: models.RoleSecretary}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	byEmail, err := s.UserByEmail(ctx, "juan.perez@clinica.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("by email: %v", err)
	}

	now := time.Now()
	if err := s.TouchLastLogin(ctx, u.ID, now); err != nil {
		t.Fatalf("touch: %v", err)
	}

	// empty password keeps the stored hash
	update := *byEmail
	update.Password = ""
	update.Name = "Dr. Juan Pérez"
	if err := s.UpdateUser(ctx, &update); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if got.Password != "hash" || got.Name != "Dr. Juan Pérez" || got.LastLogin == nil {
		t.Errorf("update result: %+v", got)
	}

	sec := &models.User{Name: "Ana González", Email: "ana@clinica.com", Role: models.RoleSecretary, Status: models.UserActive}
	_ = s.CreateUser(ctx, sec)
	doctors, err := ListDoctors(ctx, s)
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(doctors) != 1 || doctors[0].ID != u.ID {
		t.Errorf("doctors: %+v", doctors)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	day := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	opts := SeedOptions{
		OwnerName: "Owner", OwnerEmail: "owner@clinica.com", OwnerPassword: "ownerpass",
		Demo: true, DemoPassword: "demopass", Day: day,
	}

	if err := Seed(ctx, s, opts, quietLogger()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// second run is a no-op
	if err := Seed(ctx, s, opts, quietLogger()); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	users, _ := s.ListUsers(ctx, UserFilter{})
	if len(users) != 5 {
		t.Errorf("expected 5 users, got %d", len(users))
	}
	patients, _ := s.ListPatients(ctx, PatientFilter{})
	if len(patients) != 4 {
		t.Errorf("expected 4 patients, got %d", len(patients))
	}
	appts, _ := s.ListAppointments(ctx, AppointmentFilter{Date: "2025-08-01"})
	if len(appts) != 4 {
		t.Errorf("expected 4 appointments, got %d", len(appts))
	}
	for _, a := range appts {
		if a.DoctorID.IsZero() || a.PatientID.IsZero() {
			t.Errorf("appointment %s missing references", a.Time)
		}
	}
}

func TestSeedNormalizesOwnerEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	opts := SeedOptions{OwnerName: "Owner", OwnerEmail: "  Owner@Clinic.COM ", OwnerPassword: "ownerpass"}
	if err := Seed(ctx, s, opts, quietLogger()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	users, _ := s.ListUsers(ctx, UserFilter{Role: models.RoleOwner})
	if len(users) != 1 {
		t.Fatalf("expected 1 owner, got %d", len(users))
	}
	if users[0].Email != "owner@clinic.com" {
		t.Errorf("stored email = %q, want owner@clinic.com", users[0].Email)
	}
}
