// Package vault protects long-lived secret material at rest. Secrets are
// sealed into self-describing AES-256-GCM envelopes under a key derived from
// an operator-supplied passphrase with scrypt. Legacy rows holding raw PEM
// text pass through the decrypt path unchanged.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"
)

const (
	// kdfContext is the fixed scrypt salt. Changing it orphans every
	// envelope written before the change.
	kdfContext = "securelogin:key-encryption"

	// MinPassphraseLength is the minimum accepted passphrase length.
	MinPassphraseLength = 16

	keySize   = 32
	nonceSize = 12

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

var (
	// ErrConfiguration indicates the vault passphrase is missing or too
	// short. Every vault operation fails with it until the process is
	// restarted with a proper secret.
	ErrConfiguration = errors.New("vault passphrase is missing or shorter than 16 characters")

	// ErrIntegrity indicates an envelope failed authentication: wrong
	// passphrase or tampered ciphertext.
	ErrIntegrity = errors.New("envelope integrity check failed")

	// ErrFormat indicates an envelope with an unrecognized version or
	// algorithm tag.
	ErrFormat = errors.New("unsupported envelope format")
)

// Vault seals and opens envelopes under a passphrase-derived key.
// Construction never fails; a vault built from a weak passphrase is degraded
// and reports ErrConfiguration from every operation so the rest of the
// system can keep running without it.
type Vault struct {
	passphrase string

	deriveOnce sync.Once
	key        []byte
	deriveErr  error
}

// New returns a vault for the given passphrase. The key derivation is
// deliberately slow and runs once, on first use.
func New(passphrase string) *Vault {
	return &Vault{passphrase: passphrase}
}

// Ready reports whether the passphrase meets the minimum requirements.
func (v *Vault) Ready() bool {
	return len(strings.TrimSpace(v.passphrase)) >= MinPassphraseLength
}

func (v *Vault) derivedKey() ([]byte, error) {
	if !v.Ready() {
		return nil, ErrConfiguration
	}

	v.deriveOnce.Do(func() {
		v.key, v.deriveErr = scrypt.Key(
			[]byte(v.passphrase), []byte(kdfContext), scryptN, scryptR, scryptP, keySize)
	})
	if v.deriveErr != nil {
		return nil, fmt.Errorf("derive vault key: %w", v.deriveErr)
	}

	return v.key, nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	key, err := v.derivedKey()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// Encrypt seals plaintext into an envelope string safe to store in the
// record store. A fresh random nonce is generated per call.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	nonce, err := RandomBytes(nonceSize)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	// Seal appends the 16-byte GCM tag to the ciphertext; the envelope
	// carries them as separate fields.
	tagStart := len(sealed) - aead.Overhead()
	env := Envelope{
		Version:    envelopeVersion,
		Algorithm:  envelopeAlgorithm,
		Nonce:      nonce,
		Tag:        sealed[tagStart:],
		Ciphertext: sealed[:tagStart],
	}

	return env.Marshal()
}

// Decrypt opens a stored value. Legacy plaintext key material is returned
// untouched; envelopes are authenticated and opened. The variant is decided
// up front by Decode, never by crypto failures.
func (v *Vault) Decrypt(value string) ([]byte, error) {
	stored, err := Decode(value)
	if err != nil {
		return nil, err
	}

	switch stored := stored.(type) {
	case Legacy:
		return []byte(stored), nil
	case Envelope:
		return v.open(stored)
	default:
		return nil, ErrFormat
	}
}

func (v *Vault) open(env Envelope) ([]byte, error) {
	aead, err := v.aead()
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte{}, env.Ciphertext...), env.Tag...)
	plaintext, err := aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	return plaintext, nil
}

// RandomBytes returns size cryptographically random bytes.
func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}

	return value, nil
}
