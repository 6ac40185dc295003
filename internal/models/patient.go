package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MedicalRecord struct {
	Date       string             `bson:"date" json:"date"`
	Diagnosis  string             `bson:"diagnosis" json:"diagnosis"`
	DoctorID   primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	DoctorName string             `bson:"doctorName" json:"doctorName"`
}

type Patient struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	NationalID      string             `bson:"nationalId" json:"nationalId"`
	Phone           string             `bson:"phone" json:"phone"`
	Insurance       string             `bson:"insurance" json:"insurance"`
	InsuranceNumber string             `bson:"insuranceNumber,omitempty" json:"insuranceNumber,omitempty"`
	DoctorID        primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	DoctorName      string             `bson:"doctorName" json:"doctorName"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	Address         string             `bson:"address,omitempty" json:"address,omitempty"`
	BirthDate       string             `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	MedicalHistory  []MedicalRecord    `bson:"medicalHistory" json:"medicalHistory"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
