package domain

import (
	"testing"
	"time"
)

func validUser() *User {
	return &User{ID: "u1", Email: "alice@example.com", Name: "Alice", Role: RoleUser}
}

func TestValidate(t *testing.T) {
	if err := validUser().Validate(); err != nil {
		t.Fatalf("valid user: %v", err)
	}

	u := validUser()
	u.Email = ""
	if err := u.Validate(); err == nil {
		t.Error("missing email should fail")
	}

	u = validUser()
	u.Name = ""
	if err := u.Validate(); err == nil {
		t.Error("missing name should fail")
	}

	u = validUser()
	u.Role = "superuser"
	if err := u.Validate(); err == nil {
		t.Error("unknown role should fail")
	}
}

func TestValidate_DefaultsRole(t *testing.T) {
	u := validUser()
	u.Role = ""
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if u.Role != RoleUser {
		t.Errorf("role = %q, want %q", u.Role, RoleUser)
	}
}

func TestValidate_OTPFieldsArePaired(t *testing.T) {
	exp := time.Now().UTC().Add(10 * time.Minute)

	u := validUser()
	u.OTPCodeHash = "hash"
	if err := u.Validate(); err == nil {
		t.Error("hash without expiry should fail")
	}

	u = validUser()
	u.OTPExpiresAt = &exp
	if err := u.Validate(); err == nil {
		t.Error("expiry without hash should fail")
	}

	u = validUser()
	u.SetPendingOTP("hash", exp)
	if err := u.Validate(); err != nil {
		t.Errorf("paired fields should pass: %v", err)
	}
}

func TestPendingOTPLifecycle(t *testing.T) {
	u := validUser()
	if u.HasPendingOTP() {
		t.Fatal("fresh user should have no pending OTP")
	}

	exp := time.Now().UTC().Add(10 * time.Minute)
	u.SetPendingOTP("hash", exp)
	if !u.HasPendingOTP() {
		t.Fatal("pending OTP should be reported after SetPendingOTP")
	}

	u.ClearPendingOTP()
	if u.HasPendingOTP() {
		t.Fatal("ClearPendingOTP should remove both fields")
	}
	if u.OTPCodeHash != "" || u.OTPExpiresAt != nil {
		t.Errorf("fields = %q, %v, want both cleared", u.OTPCodeHash, u.OTPExpiresAt)
	}
}
