package model

import "time"

const (
	RoleUser  = 0
	RoleAdmin = 1
)

type User struct {
	ID        uint64 `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;size:150;not null"`
	Email     string `gorm:"index;size:254"`
	Password  string `gorm:"size:255;not null"`
	Role      int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role >= RoleAdmin
}
