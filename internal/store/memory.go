package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

// MemoryStore keeps everything in process memory. Values are copied in and
// out so callers never share state with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	appointments map[primitive.ObjectID]models.Appointment
	patients     map[primitive.ObjectID]models.Patient
	users        map[primitive.ObjectID]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: make(map[primitive.ObjectID]models.Appointment),
		patients:     make(map[primitive.ObjectID]models.Patient),
		users:        make(map[primitive.ObjectID]models.User),
	}
}

func (s *MemoryStore) ListAppointments(_ context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Appointment{}
	for _, a := range s.appointments {
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if !f.DoctorID.IsZero() && a.DoctorID != f.DoctorID {
			continue
		}
		if !f.PatientID.IsZero() && a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetAppointment(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) CreateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, ok := s.appointments[a.ID]; ok {
		return ErrDuplicate
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	s.appointments[a.ID] = *a
	return nil
}

func (s *MemoryStore) UpdateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.appointments[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	s.appointments[a.ID] = *a
	return nil
}

func (s *MemoryStore) DeleteAppointment(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

func (s *MemoryStore) ListPatients(_ context.Context, f PatientFilter) ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Patient{}
	for _, p := range s.patients {
		if !f.DoctorID.IsZero() && p.DoctorID != f.DoctorID {
			continue
		}
		out = append(out, clonePatient(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetPatient(_ context.Context, id primitive.ObjectID) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = clonePatient(p)
	return &p, nil
}

func (s *MemoryStore) CreatePatient(_ context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := s.patients[p.ID]; ok {
		return ErrDuplicate
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []models.MedicalRecord{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.patients[p.ID] = clonePatient(*p)
	return nil
}

// UpdatePatient replaces the patient's fields but keeps its medical history.
func (s *MemoryStore) UpdatePatient(_ context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.patients[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.MedicalHistory = old.MedicalHistory
	s.patients[p.ID] = clonePatient(*p)
	return nil
}

func (s *MemoryStore) DeletePatient(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[id]; !ok {
		return ErrNotFound
	}
	delete(s.patients, id)
	return nil
}

func (s *MemoryStore) AddMedicalRecord(_ context.Context, patientID primitive.ObjectID, rec models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[patientID]
	if !ok {
		return ErrNotFound
	}
	p = clonePatient(p)
	p.MedicalHistory = append(p.MedicalHistory, rec)
	s.patients[patientID] = p
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context, f UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.User{}
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if s.emailTaken(u.Email, u.ID) {
		return ErrDuplicate
	}
	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return ErrDuplicate
	}
	u.CreatedAt = old.CreatedAt
	if u.Password == "" {
		u.Password = old.Password
	}
	if u.LastLogin == nil {
		u.LastLogin = old.LastLogin
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

// caller holds s.mu
func (s *MemoryStore) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range s.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func clonePatient(p models.Patient) models.Patient {
	hist := make([]models.MedicalRecord, len(p.MedicalHistory))
	copy(hist, p.MedicalHistory)
	p.MedicalHistory = hist
	return p
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
