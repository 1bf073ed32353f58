// Package store defines the record-store seams the credential core depends
// on. Implementations must provide the atomicity noted on each method; the
// GORM implementation lives in the gorm subpackage and in-memory fakes back
// the tests.
package store

import (
	"time"

	"github.com/jayeshrk/securelogin/pkg/model"
)

// UsersStore abstracts account storage.
type UsersStore interface {
	// FindByUsername returns the user or ErrNotFound.
	FindByUsername(username string) (*model.User, error)

	// UsernameOrEmailTaken reports whether either identifier is in use.
	UsernameOrEmailTaken(username, email string) (bool, error)

	// Create inserts a new user row.
	Create(user *model.User) error

	// List returns all users, newest last.
	List() ([]model.User, error)

	// RecordFailedAttempt atomically increments the failure counter and
	// sets the lock flag once the threshold is reached. The
	// read-modify-write is serialized at the store so concurrent failures
	// never under-count. Returns the new counter value and lock state.
	RecordFailedAttempt(userID string, maxAttempts int) (attempts int, locked bool, err error)

	// ResetFailedAttempts returns the failure counter to zero.
	ResetFailedAttempts(userID string) error

	// SetOTP atomically overwrites the code and expiry together.
	SetOTP(userID string, code string, expiresAt time.Time) error

	// ClearOTP atomically clears the code and expiry together.
	ClearOTP(userID string) error

	// MarkVerified flips the verification flag and clears the OTP fields
	// in a single update.
	MarkVerified(userID string) error

	// Unlock clears the lock flag and failure counter for a username.
	// Returns ErrNotFound if no such user exists.
	Unlock(username string) error
}

// SessionsStore abstracts bearer session storage. The token column carries
// a uniqueness constraint as the collision safety net.
type SessionsStore interface {
	// Create inserts a session and clears the owning user's OTP fields in
	// one transaction, so a crash cannot leave a half-authenticated
	// account.
	Create(session *model.Session) error

	// FindByToken returns the session and its owning user, or ErrNotFound.
	FindByToken(token string) (*model.Session, *model.User, error)
}

// KeysStore abstracts the signing keypair slots.
type KeysStore interface {
	// Count returns the number of persisted key slots.
	Count() (int64, error)

	// Get returns the stored value for a slot, or ErrNotFound.
	Get(slot string) (string, error)

	// PutPair persists both slots in one transaction (both-or-neither).
	PutPair(publicValue, privateValue string) error
}

// BlobsStore persists the append-only signed blob audit records.
type BlobsStore interface {
	Save(blob *model.SignedBlob) error
}
