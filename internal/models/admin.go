package models

import "time"

type AdminUser struct {
	ID           string    `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	Email        string    `bson:"email" json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"password_hash" json:"-" gorm:"not null"`
	IsActive     bool      `bson:"is_active" json:"is_active" gorm:"not null"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// AdminIdentity is the public view of an admin carried in sessions and responses.
type AdminIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a AdminUser) Identity() AdminIdentity {
	return AdminIdentity{ID: a.ID, Email: a.Email, Name: a.Name}
}
