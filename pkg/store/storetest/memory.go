// Package storetest provides in-memory store implementations for tests.
// They honor the same atomicity contracts as the GORM stores, guarded by a
// single mutex over the shared state.
package storetest

import (
	"errors"
	"sync"
	"time"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// Memory is shared in-memory state. The interface implementations are
// views over it: Users(), Sessions(), Keys(), Blobs().
type Memory struct {
	mu       sync.Mutex
	users    map[string]*model.User // by ID
	sessions map[string]*model.Session
	keys     map[string]string
	blobs    []model.SignedBlob

	// FailKeyWrites makes PutPair fail, for both-or-neither tests.
	FailKeyWrites bool

	// FailBlobWrites makes Save fail, for best-effort audit tests.
	FailBlobWrites bool
}

// New returns an empty in-memory store.
func New() *Memory {
	return &Memory{
		users:    map[string]*model.User{},
		sessions: map[string]*model.Session{},
		keys:     map[string]string{},
	}
}

// Users returns the UsersStore view.
func (m *Memory) Users() store.UsersStore { return (*usersView)(m) }

// Sessions returns the SessionsStore view.
func (m *Memory) Sessions() store.SessionsStore { return (*sessionsView)(m) }

// Keys returns the KeysStore view.
func (m *Memory) Keys() store.KeysStore { return (*keysView)(m) }

// Blobs returns the BlobsStore view.
func (m *Memory) Blobs() store.BlobsStore { return (*blobsView)(m) }

// UserByID returns a snapshot of the record, for assertions.
func (m *Memory) UserByID(id string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return copyUser(u)
}

// BlobRecords returns a snapshot of saved blobs.
func (m *Memory) BlobRecords() []model.SignedBlob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.SignedBlob(nil), m.blobs...)
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.OTP.Code != nil {
		code := *u.OTP.Code
		c.OTP.Code = &code
	}
	if u.OTP.ExpiresAt != nil {
		at := *u.OTP.ExpiresAt
		c.OTP.ExpiresAt = &at
	}
	return &c
}

type usersView Memory

var _ store.UsersStore = (*usersView)(nil)

func (v *usersView) FindByUsername(username string) (*model.User, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, u := range v.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *usersView) UsernameOrEmailTaken(username, email string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, u := range v.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (v *usersView) Create(user *model.User) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.users[user.ID] = copyUser(user)
	return nil
}

func (v *usersView) List() ([]model.User, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	users := make([]model.User, 0, len(v.users))
	for _, u := range v.users {
		users = append(users, *copyUser(u))
	}
	return users, nil
}

func (v *usersView) RecordFailedAttempt(userID string, maxAttempts int) (int, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.users[userID]
	if !ok {
		return 0, false, store.ErrNotFound
	}
	if u.IsLocked {
		return maxAttempts, true, nil
	}
	u.FailedAttempts++
	u.IsLocked = u.FailedAttempts >= maxAttempts
	return u.FailedAttempts, u.IsLocked, nil
}

func (v *usersView) ResetFailedAttempts(userID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.FailedAttempts = 0
	return nil
}

func (v *usersView) SetOTP(userID string, code string, expiresAt time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.OTP.Set(code, expiresAt)
	return nil
}

func (v *usersView) ClearOTP(userID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.OTP.Clear()
	return nil
}

func (v *usersView) MarkVerified(userID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.IsVerified = true
	u.OTP.Clear()
	return nil
}

func (v *usersView) Unlock(username string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, u := range v.users {
		if u.Username == username {
			u.IsLocked = false
			u.FailedAttempts = 0
			return nil
		}
	}
	return store.ErrNotFound
}

type sessionsView Memory

var _ store.SessionsStore = (*sessionsView)(nil)

var errDuplicateToken = errors.New("duplicate session token")

func (v *sessionsView) Create(session *model.Session) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.sessions {
		if s.Token == session.Token {
			return errDuplicateToken
		}
	}
	copied := *session
	v.sessions[session.ID] = &copied
	if u, ok := v.users[session.UserID]; ok {
		u.OTP.Clear()
	}
	return nil
}

func (v *sessionsView) FindByToken(token string) (*model.Session, *model.User, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.sessions {
		if s.Token == token {
			copied := *s
			u, ok := v.users[s.UserID]
			if !ok {
				return nil, nil, store.ErrNotFound
			}
			return &copied, copyUser(u), nil
		}
	}
	return nil, nil, store.ErrNotFound
}

type keysView Memory

var _ store.KeysStore = (*keysView)(nil)

var errKeyWrite = errors.New("key write refused")

func (v *keysView) Count() (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return int64(len(v.keys)), nil
}

func (v *keysView) Get(slot string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	value, ok := v.keys[slot]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (v *keysView) PutPair(publicValue, privateValue string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.FailKeyWrites {
		return errKeyWrite
	}
	v.keys[model.KeySlotPublic] = publicValue
	v.keys[model.KeySlotPrivate] = privateValue
	return nil
}

type blobsView Memory

var _ store.BlobsStore = (*blobsView)(nil)

var errBlobWrite = errors.New("blob write refused")

func (v *blobsView) Save(blob *model.SignedBlob) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.FailBlobWrites {
		return errBlobWrite
	}
	v.blobs = append(v.blobs, *blob)
	return nil
}
