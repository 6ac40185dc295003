package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/utils"
)

type SeedOptions struct {
	OwnerName     string
	OwnerEmail    string
	OwnerPassword string

	// Demo loads a sample clinic dated on Day, with every demo account using
	// DemoPassword.
	Demo         bool
	DemoPassword string
	Day          time.Time
}

// Seed creates the bootstrap owner when the user table is empty and, with
// Demo set, a sample clinic when there are no patients yet. It is safe to run
// on every start.
func Seed(ctx context.Context, repo Repository, opts SeedOptions, log logrus.FieldLogger) error {
	users, err := repo.ListUsers(ctx, UserFilter{})
	if err != nil {
		return fmt.Errorf("seed: list users: %w", err)
	}
	if len(users) == 0 && opts.OwnerEmail != "" && opts.OwnerPassword != "" {
		if err := createUser(ctx, repo, opts.OwnerName, opts.OwnerEmail, opts.OwnerPassword, models.RoleOwner, models.UserActive); err != nil {
			return err
		}
		log.WithField("email", opts.OwnerEmail).Info("bootstrap owner created")
	}

	if !opts.Demo {
		return nil
	}
	patients, err := repo.ListPatients(ctx, PatientFilter{})
	if err != nil {
		return fmt.Errorf("seed: list patients: %w", err)
	}
	if len(patients) > 0 {
		log.Debug("demo seed skipped, patients already present")
		return nil
	}
	if err := seedDemo(ctx, repo, opts); err != nil {
		return err
	}
	log.WithField("day", opts.Day.Format("2006-01-02")).Info("demo clinic loaded")
	return nil
}

func createUser(ctx context.Context, repo Repository, name, email, password string, role models.Role, status models.UserStatus) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}
	// stored lower-case; the Mongo and SQL lookups are exact matches
	email = strings.ToLower(strings.TrimSpace(email))
	u := &models.User{Name: name, Email: email, Password: hash, Role: role, Status: status}
	if err := repo.CreateUser(ctx, u); err != nil && !errors.Is(err, ErrDuplicate) {
		return fmt.Errorf("seed: create user %s: %w", email, err)
	}
	return nil
}

func seedDemo(ctx context.Context, repo Repository, opts SeedOptions) error {
	pw := opts.DemoPassword
	if pw == "" {
		pw = "clinic1234"
	}
	staff := []struct {
		name, email string
		role        models.Role
		status      models.UserStatus
	}{
		{"Dr. Pérez", "juan.perez@clinica.com", models.RoleDoctor, models.UserActive},
		{"Dra. Ramos", "maria.ramos@clinica.com", models.RoleDoctor, models.UserActive},
		{"Ana González", "ana.gonzalez@clinica.com", models.RoleSecretary, models.UserActive},
		{"Carlos Mendoza", "carlos.mendoza@clinica.com", models.RoleSecretary, models.UserInactive},
	}
	for _, s := range staff {
		if err := createUser(ctx, repo, s.name, s.email, pw, s.role, s.status); err != nil {
			return err
		}
	}

	perez, err := repo.UserByEmail(ctx, "juan.perez@clinica.com")
	if err != nil {
		return fmt.Errorf("seed: load Dr. Pérez: %w", err)
	}
	ramos, err := repo.UserByEmail(ctx, "maria.ramos@clinica.com")
	if err != nil {
		return fmt.Errorf("seed: load Dra. Ramos: %w", err)
	}

	patients := []*models.Patient{
		{
			Name: "Ana Torres", NationalID: "12.345.678", Phone: "11-1234-5678",
			Insurance: "OSDE", InsuranceNumber: "123456789",
			Email: "ana.torres@email.com", Address: "Av. Corrientes 1234, CABA", BirthDate: "1985-03-15",
			DoctorID: perez.ID, DoctorName: perez.Name,
			MedicalHistory: []models.MedicalRecord{
				{Date: "2024-12-15", Diagnosis: "Control rutinario", DoctorID: perez.ID, DoctorName: perez.Name},
				{Date: "2024-11-20", Diagnosis: "Hipertensión leve", DoctorID: perez.ID, DoctorName: perez.Name},
				{Date: "2024-10-10", Diagnosis: "Análisis de sangre", DoctorID: perez.ID, DoctorName: perez.Name},
			},
		},
		{Name: "Carlos López", NationalID: "23.456.789", Phone: "11-2345-6789", Insurance: "Swiss Medical", DoctorID: ramos.ID, DoctorName: ramos.Name},
		{Name: "Marta Gómez", NationalID: "34.567.890", Phone: "11-3456-7890", Insurance: "Galeno", DoctorID: perez.ID, DoctorName: perez.Name},
		{Name: "Luis Castro", NationalID: "45.678.901", Phone: "11-4567-8901", Insurance: "OSDE", DoctorID: ramos.ID, DoctorName: ramos.Name},
	}
	for _, p := range patients {
		if err := repo.CreatePatient(ctx, p); err != nil {
			return fmt.Errorf("seed: create patient %s: %w", p.Name, err)
		}
	}

	day := opts.Day.Format("2006-01-02")
	appts := []models.Appointment{
		{Time: "09:30", Status: models.StatusConfirmed},
		{Time: "10:15", Status: models.StatusPending},
		{Time: "11:00", Status: models.StatusConfirmed},
		{Time: "14:30", Status: models.StatusPending},
	}
	for i := range appts {
		p := patients[i]
		a := appts[i]
		a.Date = day
		a.PatientID, a.PatientName = p.ID, p.Name
		a.DoctorID, a.DoctorName = p.DoctorID, p.DoctorName
		a.DurationMinutes = 30
		if err := repo.CreateAppointment(ctx, &a); err != nil {
			return fmt.Errorf("seed: create appointment %s: %w", a.Time, err)
		}
	}
	return nil
}
