package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest accepted administrator password.
const MinPasswordLength = 12

const bcryptCost = 12

var (
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("wrong password")
)

// AdminUser is a staff account allowed to sign in to the admin panel.
type AdminUser struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string     `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Name         string     `gorm:"size:150;not null" json:"name"`
	Role         string     `gorm:"size:32;not null" json:"role"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID for the account if the ID is not set yet.
func (u *AdminUser) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// SetPassword hashes and stores a password using bcrypt.
func (u *AdminUser) SetPassword(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *AdminUser) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
