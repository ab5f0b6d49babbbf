package model

import (
	"time"

	"github.com/Guyuepp/community-board/domain"
)

type User struct {
	ID          string    `gorm:"type:char(26);primaryKey"`
	Email       string    `gorm:"type:varchar(254);not null;uniqueIndex"`
	Handle      string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	DisplayName string    `gorm:"type:varchar(64);not null"`
	IsAdmin     bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"type:datetime(3)"`
	UpdatedAt   time.Time `gorm:"type:datetime(3)"`
}

func (User) TableName() string {
	return "users"
}

func (m *User) ToDomain() domain.User {
	return domain.User{
		ID:          m.ID,
		Email:       m.Email,
		Handle:      m.Handle,
		DisplayName: m.DisplayName,
		IsAdmin:     m.IsAdmin,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func NewUserFromDomain(u *domain.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
