package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusAttended  AppointmentStatus = "Attended"
	StatusNoShow    AppointmentStatus = "NoShow"
)

// Date is YYYY-MM-DD and Time is HH:MM on the 15 minute grid.
type Appointment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date            string             `bson:"date" json:"date"`
	Time            string             `bson:"time" json:"time"`
	PatientID       primitive.ObjectID `bson:"patientId" json:"patientId"`
	PatientName     string             `bson:"patientName" json:"patientName"`
	DoctorID        primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	DoctorName      string             `bson:"doctorName" json:"doctorName"`
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	Status          AppointmentStatus  `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
