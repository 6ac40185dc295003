package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleDoctor    Role = "DOCTOR"
	RoleSecretary Role = "SECRETARY"
	RoleOwner     Role = "OWNER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RoleSecretary, RoleOwner:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserInactive UserStatus = "Inactive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // bcrypt hash
	Role      Role               `bson:"role" json:"role"`
	Status    UserStatus         `bson:"status" json:"status"`
	LastLogin *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Doctor is the public projection of a user with RoleDoctor.
type Doctor struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

func (u User) AsDoctor() Doctor {
	return Doctor{ID: u.ID, Name: u.Name}
}
