package models

import "time"

type Category struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `bson:"name" json:"name"`
	NameAr    string    `bson:"name_ar" json:"name_ar"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
