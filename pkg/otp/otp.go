// Package otp issues and verifies the numeric one-time codes used as the
// second authentication factor. A user holds at most one live code; issuing
// replaces it, and consuming it is the caller's responsibility as part of
// whatever transition the code authorizes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// Purpose selects the validity window for an issued code.
type Purpose string

const (
	PurposeRegistration Purpose = "registration"
	PurposeLogin        Purpose = "login"
)

// Window returns the validity window for the purpose.
func (p Purpose) Window() time.Duration {
	if p == PurposeRegistration {
		return 10 * time.Minute
	}
	return 2 * time.Minute
}

// Result of a verification attempt.
type Result int

const (
	// Invalid: no live code, or the submitted code does not match.
	Invalid Result = iota
	// Expired: the code matched but its window has passed. The code is
	// NOT cleared here; the caller must clear it explicitly.
	Expired
	// Valid: exact match within the window. The caller clears the code
	// as part of the state transition the success authorizes.
	Valid
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// Generate returns a uniformly random six-digit decimal code in
// [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Manager owns the OTP sub-state of user records. It does not gate which
// purposes are valid for which account state; callers decide that.
type Manager struct {
	users store.UsersStore
	now   func() time.Time
}

// NewManager returns a manager over the given user store.
func NewManager(users store.UsersStore) *Manager {
	return &Manager{users: users, now: time.Now}
}

// WithClock overrides the clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue generates a fresh code for the user and atomically overwrites any
// previously issued code together with its expiry. The user value is
// updated in place so callers see the new sub-state.
func (m *Manager) Issue(user *model.User, purpose Purpose) (string, error) {
	code, err := Generate()
	if err != nil {
		return "", err
	}

	expiresAt := m.now().Add(purpose.Window())
	if err := m.users.SetOTP(user.ID, code, expiresAt); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	user.OTP.Set(code, expiresAt)
	return code, nil
}

// Verify checks a submitted code against the user's live code.
func (m *Manager) Verify(user *model.User, submitted string, purpose Purpose) Result {
	if !user.OTP.Live() {
		return Invalid
	}
	if submitted == "" || submitted != *user.OTP.Code {
		return Invalid
	}
	if m.now().After(*user.OTP.ExpiresAt) {
		return Expired
	}
	return Valid
}

// Clear drops the user's OTP sub-state, both in the store and on the
// in-memory record. Required after both success and detected expiry.
func (m *Manager) Clear(user *model.User) error {
	if err := m.users.ClearOTP(user.ID); err != nil {
		return fmt.Errorf("clear code: %w", err)
	}
	user.OTP.Clear()
	return nil
}
