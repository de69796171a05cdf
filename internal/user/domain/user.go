package domain

import (
	"errors"
	"time"
)

// User is the core identity entity. Email is the unique (lower-cased) key.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // optional; legacy accounts only, never set by OTP or Google flows
	Role         Role
	IsVerified   bool
	OTPCodeHash  string     // hashed pending one-time code; "" when no OTP is pending
	OTPExpiresAt *time.Time // paired with OTPCodeHash; both set or both absent
	GoogleID     string     // optional; set once on first federated sign-in
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return errors.New("role must be user or admin")
	}
	if (u.OTPCodeHash == "") != (u.OTPExpiresAt == nil) {
		return errors.New("otp code hash and expiry must be set together")
	}
	return nil
}

// HasPendingOTP reports whether an unconsumed one-time code is stored.
func (u *User) HasPendingOTP() bool {
	return u.OTPCodeHash != "" && u.OTPExpiresAt != nil
}

// SetPendingOTP stores the hashed code and its expiry as a pair.
func (u *User) SetPendingOTP(codeHash string, expiresAt time.Time) {
	u.OTPCodeHash = codeHash
	u.OTPExpiresAt = &expiresAt
}

// ClearPendingOTP removes both pending-OTP fields.
func (u *User) ClearPendingOTP() {
	u.OTPCodeHash = ""
	u.OTPExpiresAt = nil
}
