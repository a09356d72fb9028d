package models

import "time"

// User is an authenticated platform identity.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      Role      `gorm:"size:16;not null;index" json:"role"`
	ClassYear string    `gorm:"size:32" json:"class_year"`
	College   string    `gorm:"size:255" json:"college"`
	Mobile    string    `gorm:"size:32" json:"mobile"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
