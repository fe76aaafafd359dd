package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/enums"
)

// User represents the canonical identity entity. Credentials and challenge
// secrets are stored hashed only; raw passwords, OTP codes, and reset tokens
// never reach a column.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	FirstName     string         `gorm:"column:first_name;not null"`
	LastName      string         `gorm:"column:last_name;not null"`
	Phone         *string        `gorm:"column:phone"`
	Role          enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	IsActive      bool           `gorm:"column:is_active;not null;default:false"`
	EmailVerified bool           `gorm:"column:email_verified;not null;default:false"`

	OTPHash      *string    `gorm:"column:otp_hash"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at"`
	OTPAttempts  int        `gorm:"column:otp_attempts;not null;default:0"`

	ResetTokenHash      *string    `gorm:"column:reset_token_hash"`
	ResetTokenExpiresAt *time.Time `gorm:"column:reset_token_expires_at"`

	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ClearOTPChallenge wipes the pending OTP state after a successful
// verification or attempt-cap exhaustion.
func (u *User) ClearOTPChallenge() {
	u.OTPHash = nil
	u.OTPExpiresAt = nil
	u.OTPAttempts = 0
}

// ClearResetChallenge wipes the pending password reset state.
func (u *User) ClearResetChallenge() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
}
