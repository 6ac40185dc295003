package schedule

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

// AllDoctors is the selector value meaning "no doctor filter".
const AllDoctors = "all"

// Viewer is the authenticated caller a schedule is built for.
type Viewer struct {
	UserID primitive.ObjectID
	Role   models.Role
}

func (v Viewer) IsStaff() bool {
	return v.Role == models.RoleSecretary || v.Role == models.RoleOwner
}

// FilterAppointments scopes appts to what viewer may see. Doctors only see
// their own appointments and selectedDoctorID is ignored for them. Staff see
// everything unless selectedDoctorID names a doctor; an id that does not
// resolve against doctors yields an empty result.
func FilterAppointments(appts []models.Appointment, viewer Viewer, selectedDoctorID string, doctors []models.Doctor) []models.Appointment {
	out := []models.Appointment{}
	switch {
	case viewer.Role == models.RoleDoctor:
		for _, a := range appts {
			if a.DoctorID == viewer.UserID {
				out = append(out, a)
			}
		}
	case viewer.IsStaff():
		if selectedDoctorID == "" || selectedDoctorID == AllDoctors {
			return append(out, appts...)
		}
		doctor, ok := ResolveDoctor(doctors, selectedDoctorID)
		if !ok {
			return out
		}
		for _, a := range appts {
			if a.DoctorID == doctor.ID {
				out = append(out, a)
			}
		}
	}
	return out
}

func ResolveDoctor(doctors []models.Doctor, id string) (models.Doctor, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Doctor{}, false
	}
	for _, d := range doctors {
		if d.ID == oid {
			return d, true
		}
	}
	return models.Doctor{}, false
}

// AppointmentForSlot returns the first appointment, in list order, starting
// exactly at t. Later appointments sharing the slot are not returned.
func AppointmentForSlot(filtered []models.Appointment, t string) (models.Appointment, bool) {
	for _, a := range filtered {
		if a.Time == t {
			return a, true
		}
	}
	return models.Appointment{}, false
}
