// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DefaultProfileImage is assigned to every account until the user uploads a picture.
const DefaultProfileImage = "default.jpg"

// User represents a registered account in the Inkwell application.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:60;not null" json:"-"`
	ImageFile string    `gorm:"size:40;not null;default:'default.jpg'" json:"image_file"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Posts     []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}
