package models

import (
	"encoding/json"
	"time"
)

// AdminSession is the server-side record behind an admin_session cookie.
type AdminSession struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	AdminID   string    `bson:"admin_id" json:"admin_id" gorm:"type:uuid;not null;index"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"-" gorm:"index"`
}

// Valid reports whether the session is still usable at now.
func (s AdminSession) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

func (s AdminSession) Identity() AdminIdentity {
	return AdminIdentity{ID: s.AdminID, Email: s.Email, Name: s.Name}
}

// MarshalJSON exposes expiresAt as epoch milliseconds.
func (s AdminSession) MarshalJSON() ([]byte, error) {
	type alias AdminSession
	return json.Marshal(struct {
		alias
		ExpiresAt int64 `json:"expiresAt"`
	}{alias: alias(s), ExpiresAt: s.ExpiresAt.UnixMilli()})
}

func (s *AdminSession) UnmarshalJSON(data []byte) error {
	type alias AdminSession
	aux := struct {
		*alias
		ExpiresAt int64 `json:"expiresAt"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.ExpiresAt = time.UnixMilli(aux.ExpiresAt)
	return nil
}
