package gorm

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// Ensure UsersStore implements store.UsersStore
var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

func (s *UsersStore) FindByUsername(username string) (*model.User, error) {
	var user model.User
	tx := s.db.Where("username = ?", username).First(&user)
	if tx.Error != nil {
		return nil, translateErr(tx.Error)
	}
	return &user, nil
}

func (s *UsersStore) UsernameOrEmailTaken(username, email string) (bool, error) {
	var count int64
	tx := s.db.Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if tx.Error != nil {
		return false, tx.Error
	}
	return count > 0, nil
}

func (s *UsersStore) Create(user *model.User) error {
	return s.db.Create(user).Error
}

func (s *UsersStore) List() ([]model.User, error) {
	var users []model.User
	tx := s.db.Order("created_at").Find(&users)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return users, nil
}

// RecordFailedAttempt bumps the failure counter and locks the account once
// the threshold is reached, in a single conditional UPDATE so two
// simultaneous wrong-password submissions cannot lose an increment.
func (s *UsersStore) RecordFailedAttempt(userID string, maxAttempts int) (int, bool, error) {
	var attempts int
	var locked bool
	row := s.db.Raw(`
		UPDATE users
		SET failed_attempts = failed_attempts + 1,
		    is_locked = (failed_attempts + 1 >= ?)
		WHERE id = ? AND NOT is_locked
		RETURNING failed_attempts, is_locked
	`, maxAttempts, userID).Row()
	if err := row.Scan(&attempts, &locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already locked; nothing to count.
			return maxAttempts, true, nil
		}
		return 0, false, err
	}
	return attempts, locked, nil
}

func (s *UsersStore) ResetFailedAttempts(userID string) error {
	return s.db.Exec(`UPDATE users SET failed_attempts = 0 WHERE id = ?`, userID).Error
}

func (s *UsersStore) SetOTP(userID string, code string, expiresAt time.Time) error {
	return s.db.Exec(
		`UPDATE users SET otp = ?, otp_expires = ? WHERE id = ?`,
		code, expiresAt, userID,
	).Error
}

func (s *UsersStore) ClearOTP(userID string) error {
	return s.db.Exec(
		`UPDATE users SET otp = NULL, otp_expires = NULL WHERE id = ?`,
		userID,
	).Error
}

func (s *UsersStore) MarkVerified(userID string) error {
	return s.db.Exec(
		`UPDATE users SET is_verified = TRUE, otp = NULL, otp_expires = NULL WHERE id = ?`,
		userID,
	).Error
}

func (s *UsersStore) Unlock(username string) error {
	tx := s.db.Exec(
		`UPDATE users SET is_locked = FALSE, failed_attempts = 0 WHERE username = ?`,
		username,
	)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
