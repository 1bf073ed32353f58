package gorm

import (
	"gorm.io/gorm"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// Ensure SessionsStore implements store.SessionsStore
var _ store.SessionsStore = (*SessionsStore)(nil)

// SessionsStore implements store.SessionsStore using GORM
type SessionsStore struct {
	db *gorm.DB
}

// NewSessionsStore creates a new SessionsStore
func NewSessionsStore(db *gorm.DB) *SessionsStore {
	return &SessionsStore{db: db}
}

// Create inserts the session and clears the owner's OTP fields in one
// transaction.
func (s *SessionsStore) Create(session *model.Session) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.Exec(
			`UPDATE users SET otp = NULL, otp_expires = NULL WHERE id = ?`,
			session.UserID,
		).Error
	})
}

func (s *SessionsStore) FindByToken(token string) (*model.Session, *model.User, error) {
	var session model.Session
	tx := s.db.Where("token = ?", token).First(&session)
	if tx.Error != nil {
		return nil, nil, translateErr(tx.Error)
	}

	var user model.User
	tx = s.db.Where("id = ?", session.UserID).First(&user)
	if tx.Error != nil {
		return nil, nil, translateErr(tx.Error)
	}

	return &session, &user, nil
}
