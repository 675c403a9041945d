package domain

import "time"

// User is a profile mirrored from the identity provider.
// The id is the provider's subject, so it is never auto-generated here.
type User struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"column:name;size:120" json:"name"`
	Email     string    `gorm:"column:email;size:255" json:"email,omitempty"`
	Image     string    `gorm:"column:image;size:500" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
