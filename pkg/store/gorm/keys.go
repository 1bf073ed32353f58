package gorm

import (
	"gorm.io/gorm"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// Ensure KeysStore implements store.KeysStore
var _ store.KeysStore = (*KeysStore)(nil)

// KeysStore implements store.KeysStore using GORM
type KeysStore struct {
	db *gorm.DB
}

// NewKeysStore creates a new KeysStore
func NewKeysStore(db *gorm.DB) *KeysStore {
	return &KeysStore{db: db}
}

func (s *KeysStore) Count() (int64, error) {
	var count int64
	tx := s.db.Model(&model.SigningKey{}).Count(&count)
	return count, tx.Error
}

func (s *KeysStore) Get(slot string) (string, error) {
	var key model.SigningKey
	tx := s.db.Where("slot = ?", slot).First(&key)
	if tx.Error != nil {
		return "", translateErr(tx.Error)
	}
	return key.Value, nil
}

// PutPair writes both slots or neither.
func (s *KeysStore) PutPair(publicValue, privateValue string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.SigningKey{
			Slot:  model.KeySlotPublic,
			Value: publicValue,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&model.SigningKey{
			Slot:  model.KeySlotPrivate,
			Value: privateValue,
		}).Error
	})
}
