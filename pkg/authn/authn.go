// Package authn implements the password check and the per-account lockout
// state machine. An account is Active with a failure counter below the
// threshold or Locked; Locked rejects attempts before any hashing work and
// has no self-serve exit, only an administrative unlock.
package authn

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// MaxAttempts is the consecutive-failure threshold that locks an account.
const MaxAttempts = 3

const bcryptCost = 10

var (
	// ErrInvalidCredential covers both unknown usernames and wrong
	// passwords; callers must never distinguish the two.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrAccountLocked indicates the account reached the failure
	// threshold. Returned before any password comparison.
	ErrAccountLocked = errors.New("account locked due to too many failed attempts")

	// ErrNotVerified indicates the password matched but the account never
	// completed registration verification.
	ErrNotVerified = errors.New("account not verified")
)

// AttemptError carries the failure count alongside ErrInvalidCredential so
// responses can report attempts remaining without leaking anything else.
type AttemptError struct {
	Attempts int
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("invalid credentials (attempt %d/%d)", e.Attempts, MaxAttempts)
}

func (e *AttemptError) Unwrap() error { return ErrInvalidCredential }

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Checker runs the credential state machine over a user store.
type Checker struct {
	users store.UsersStore
}

// NewChecker returns a checker over the given store.
func NewChecker(users store.UsersStore) *Checker {
	return &Checker{users: users}
}

// CheckPassword validates a password attempt and advances the lockout
// state machine.
//
// On a wrong password the failure counter is incremented atomically at the
// store; reaching MaxAttempts locks the account. On a correct password the
// counter resets immediately, before any second factor is checked; this
// preserves the reference behavior (see DESIGN.md) and means an attacker
// who knows the password gains a fresh OTP budget but never a fresh
// password budget.
func (c *Checker) CheckPassword(username, password string) (*model.User, error) {
	user, err := c.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Indistinguishable from a wrong password.
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	// Locked rejects before any bcrypt work.
	if user.IsLocked {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		attempts, locked, ferr := c.users.RecordFailedAttempt(user.ID, MaxAttempts)
		if ferr != nil {
			return nil, fmt.Errorf("record failed attempt: %w", ferr)
		}
		if locked {
			return nil, ErrAccountLocked
		}
		return nil, &AttemptError{Attempts: attempts}
	}

	if user.FailedAttempts > 0 {
		if err := c.users.ResetFailedAttempts(user.ID); err != nil {
			return nil, fmt.Errorf("reset failed attempts: %w", err)
		}
		user.FailedAttempts = 0
	}

	// The counter reset above happens on password match alone; the
	// verification gate comes after it.
	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	return user, nil
}

// Unlock is the administrative exit from the Locked state.
func (c *Checker) Unlock(username string) error {
	return c.users.Unlock(username)
}
