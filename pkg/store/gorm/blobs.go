package gorm

import (
	"gorm.io/gorm"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
)

// Ensure BlobsStore implements store.BlobsStore
var _ store.BlobsStore = (*BlobsStore)(nil)

// BlobsStore implements store.BlobsStore using GORM
type BlobsStore struct {
	db *gorm.DB
}

// NewBlobsStore creates a new BlobsStore
func NewBlobsStore(db *gorm.DB) *BlobsStore {
	return &BlobsStore{db: db}
}

func (s *BlobsStore) Save(blob *model.SignedBlob) error {
	return s.db.Create(blob).Error
}
