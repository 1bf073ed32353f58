package model

import "time"

// Key slots for the service signing keypair.
const (
	KeySlotPublic  = "public"
	KeySlotPrivate = "private"
)

// SigningKey is one half of the RSA keypair, stored as a vault envelope
// (or, for rows predating encryption at rest, raw PEM).
type SigningKey struct {
	Slot      string    `gorm:"column:slot;primaryKey"`
	Value     string    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SigningKey) TableName() string {
	return "signing_keys"
}
