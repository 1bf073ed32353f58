package model

import "time"

// SignedBlob is an append-only record of sensitive aggregate data released
// by the service: the payload sealed in a vault envelope plus a detached
// signature over the plaintext. Never updated or deleted.
type SignedBlob struct {
	ID               string    `gorm:"column:id;primaryKey"`
	DataType         string    `gorm:"column:data_type"`
	EncryptedContent string    `gorm:"column:encrypted_content"`
	Signature        string    `gorm:"column:signature"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SignedBlob) TableName() string {
	return "signed_blobs"
}
