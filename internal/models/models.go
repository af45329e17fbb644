package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	Nickname     string    `gorm:"unique;not null"          json:"nickname"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	IsAdmin      bool      `gorm:"default:false"            json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}
