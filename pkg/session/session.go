// Package session mints and validates the opaque bearer tokens issued
// after a completed two-factor login. Expiry is checked lazily at
// validation time; there is no revocation path.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

// TokenTTL is the session lifetime.
const TokenTTL = 30 * time.Minute

// tokenBytes gives 192 bits of entropy; collisions are treated as
// statistically impossible, with the store's unique constraint as the
// safety net.
const tokenBytes = 24

// State of a validated token.
type State int

const (
	// NotFound: no session carries this token.
	NotFound State = iota
	// Expired: the session exists but its window has passed.
	Expired
	// Valid: the session is live.
	Valid
)

// Issuer mints and validates sessions.
type Issuer struct {
	sessions store.SessionsStore
	now      func() time.Time
}

// NewIssuer returns an issuer over the given session store.
func NewIssuer(sessions store.SessionsStore) *Issuer {
	return &Issuer{sessions: sessions, now: time.Now}
}

// WithClock overrides the clock. Tests only.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue mints a session for the user. The store persists the session and
// clears the user's OTP fields in one transaction.
func (i *Issuer) Issue(user *model.User) (*model.Session, error) {
	raw, err := vault.RandomBytes(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := i.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: now.Add(TokenTTL),
		CreatedAt: now,
	}

	if err := i.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}

// Validate resolves a token to its owning user.
func (i *Issuer) Validate(token string) (State, *model.User, error) {
	session, user, err := i.sessions.FindByToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound, nil, nil
		}
		return NotFound, nil, fmt.Errorf("look up session: %w", err)
	}

	if session.Expired(i.now()) {
		return Expired, nil, nil
	}
	return Valid, user, nil
}
