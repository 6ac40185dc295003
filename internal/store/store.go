// Package store is the clinic's data-access layer. Handlers depend on the
// Repository interface; MongoStore, PostgresStore and MemoryStore implement it.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Zero-valued fields are not filtered on.
type AppointmentFilter struct {
	Date      string
	DoctorID  primitive.ObjectID
	PatientID primitive.ObjectID
	Status    models.AppointmentStatus
}

type PatientFilter struct {
	DoctorID primitive.ObjectID
}

type UserFilter struct {
	Role   models.Role
	Status models.UserStatus
}

type Repository interface {
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	UpdateAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id primitive.ObjectID) error

	ListPatients(ctx context.Context, f PatientFilter) ([]models.Patient, error)
	GetPatient(ctx context.Context, id primitive.ObjectID) (*models.Patient, error)
	CreatePatient(ctx context.Context, p *models.Patient) error
	UpdatePatient(ctx context.Context, p *models.Patient) error
	DeletePatient(ctx context.Context, id primitive.ObjectID) error
	AddMedicalRecord(ctx context.Context, patientID primitive.ObjectID, rec models.MedicalRecord) error

	ListUsers(ctx context.Context, f UserFilter) ([]models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Repository = (*MongoStore)(nil)
	_ Repository = (*PostgresStore)(nil)
	_ Repository = (*MemoryStore)(nil)
)

// ListDoctors returns active users with the doctor role.
func ListDoctors(ctx context.Context, r Repository) ([]models.Doctor, error) {
	users, err := r.ListUsers(ctx, UserFilter{Role: models.RoleDoctor, Status: models.UserActive})
	if err != nil {
		return nil, err
	}
	out := make([]models.Doctor, len(users))
	for i, u := range users {
		out[i] = u.AsDoctor()
	}
	return out, nil
}
