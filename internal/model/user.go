// Package model provides the shared data models for the clinsop platform.
package model

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"size:128;not null;uniqueIndex:uk_email"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	Role      string    `json:"role" gorm:"size:32;not null;default:'staff'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}
