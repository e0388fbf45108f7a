package model

import "time"

type User struct {
	ID          string     `gorm:"primaryKey;size:16" json:"-"`
	Username    string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName   string     `gorm:"size:150" json:"first_name"`
	LastName    string     `gorm:"size:150" json:"last_name"`
	Bio         string     `json:"bio"`
	Role        Role       `gorm:"size:16;not null;default:user" json:"role"`
	IsSuperuser bool       `gorm:"default:false" json:"-"`
	Stamp       string     `gorm:"size:32;not null" json:"-"` // Rotated on every mutation, invalidates confirmation codes
	LastLoginAt *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"-"`
}
