package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the directory record of a platform member.
// Profiles are owned by the user directory; this service only reads them
// to enrich connection requests, connection lists and notification text.
type User struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"type:text;not null" json:"name"`
	Avatar     string `gorm:"type:text" json:"avatar,omitempty"`
	Role       string `gorm:"type:text" json:"role,omitempty"`
	Department string `gorm:"type:text" json:"department,omitempty"`
	Batch      string `gorm:"type:text" json:"batch,omitempty"`
}

// BeforeCreate generates a UUID for directory entries created without one
// (seed data and tests; real profiles arrive with their directory id).
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Profile is the public subset of User returned to other members.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Batch      string `json:"batch,omitempty"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Name:       u.Name,
		Avatar:     u.Avatar,
		Role:       u.Role,
		Department: u.Department,
		Batch:      u.Batch,
	}
}
