package model

import "time"

// Roles form a closed set; anything else is rejected at registration.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// ValidRole reports whether role is one of the known role tags.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// OneTimeCode is the transient second-factor state embedded in a user row.
// Code and ExpiresAt are always set or cleared together; all mutation goes
// through Set and Clear.
type OneTimeCode struct {
	Code      *string    `gorm:"column:otp"`
	ExpiresAt *time.Time `gorm:"column:otp_expires"`
}

// Set installs a fresh code with its absolute expiry, replacing any
// previously issued code.
func (o *OneTimeCode) Set(code string, expiresAt time.Time) {
	o.Code = &code
	o.ExpiresAt = &expiresAt
}

// Clear removes the code and its expiry.
func (o *OneTimeCode) Clear() {
	o.Code = nil
	o.ExpiresAt = nil
}

// Live reports whether a code is currently set.
func (o OneTimeCode) Live() bool {
	return o.Code != nil && o.ExpiresAt != nil
}

// User is an identity record. The failure counter and lock flag mutate only
// through the credential state machine; the OTP sub-state mutates only
// through the OTP manager.
type User struct {
	ID             string      `gorm:"column:id;primaryKey"`
	Username       string      `gorm:"column:username;unique"`
	Email          string      `gorm:"column:email;unique"`
	PasswordHash   string      `gorm:"column:password_hash"`
	Role           string      `gorm:"column:role"`
	OTP            OneTimeCode `gorm:"embedded"`
	FailedAttempts int         `gorm:"column:failed_attempts"`
	IsLocked       bool        `gorm:"column:is_locked"`
	IsVerified     bool        `gorm:"column:is_verified"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
