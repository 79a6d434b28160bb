package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleFarmer  Role = "farmer"
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleAdmin, RoleAnalyst:
		return true
	}
	return false
}

// User — account document. PasswordHash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"       json:"id"`
	Name         string             `bson:"name"                json:"name"`
	Email        string             `bson:"email"               json:"email"`
	PasswordHash string             `bson:"passwordHash"        json:"-"`
	Role         Role               `bson:"role"                json:"role"`
	FarmSize     string             `bson:"farmSize,omitempty"  json:"farmSize,omitempty"`
	Experience   string             `bson:"experience,omitempty" json:"experience,omitempty"`
	Location     string             `bson:"location,omitempty"  json:"location,omitempty"`
	Phone        string             `bson:"phone,omitempty"     json:"phone,omitempty"`
	IsActive     bool               `bson:"isActive"            json:"isActive"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"           json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"           json:"updatedAt"`
}

// OwnerRef is the "populated owner" projection attached to crops and reports
// in list/detail responses.
type OwnerRef struct {
	ID    primitive.ObjectID `bson:"_id"   json:"id"`
	Name  string             `bson:"name"  json:"name"`
	Email string             `bson:"email" json:"email"`
}
