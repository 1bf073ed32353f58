package model

import (
	"testing"
	"time"
)

func TestValidRole(t *testing.T) {
	tests := []struct {
		role  string
		valid bool
	}{
		{"user", true},
		{"admin", true},
		{"moderator", true},
		{"root", false},
		{"", false},
		{"Admin", false},
	}

	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.valid {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.valid)
		}
	}
}

func TestOneTimeCodeJointMutation(t *testing.T) {
	var otp OneTimeCode

	if otp.Live() {
		t.Fatal("zero value should not be live")
	}

	expires := time.Now().Add(10 * time.Minute)
	otp.Set("123456", expires)

	if !otp.Live() {
		t.Fatal("code should be live after Set")
	}
	if otp.Code == nil || *otp.Code != "123456" {
		t.Errorf("unexpected code: %v", otp.Code)
	}
	if otp.ExpiresAt == nil || !otp.ExpiresAt.Equal(expires) {
		t.Errorf("unexpected expiry: %v", otp.ExpiresAt)
	}

	otp.Clear()

	if otp.Live() || otp.Code != nil || otp.ExpiresAt != nil {
		t.Error("Clear must drop both fields together")
	}
}
