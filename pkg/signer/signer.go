// Package signer owns the single service RSA keypair and the sign/verify
// operations built on it. The keypair is generated once, sealed through the
// vault, and persisted as two key slots; all later use goes through an
// initialization-once barrier rather than per-call existence checks.
package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/store"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

const keyBits = 2048

// maxConcurrentOps bounds simultaneous RSA operations so signing load
// cannot monopolize request-serving goroutines.
const maxConcurrentOps = 4

// ErrKeyUnavailable indicates signing was attempted before key material
// exists, or the vault could not open the stored envelopes (wrong
// passphrase). Vault configuration errors pass through unchanged.
var ErrKeyUnavailable = errors.New("signing key material is unavailable")

// Signer signs and verifies byte strings with the service keypair.
type Signer struct {
	vault *vault.Vault
	keys  store.KeysStore

	mu      sync.Mutex
	private *rsa.PrivateKey
	public  *rsa.PublicKey

	sem chan struct{}
}

// New returns a signer backed by the given vault and key store.
func New(v *vault.Vault, keys store.KeysStore) *Signer {
	return &Signer{
		vault: v,
		keys:  keys,
		sem:   make(chan struct{}, maxConcurrentOps),
	}
}

func (s *Signer) acquire() func() {
	s.sem <- struct{}{}
	return func() { <-s.sem }
}

// EnsureKeypair generates and persists the keypair if no key material
// exists. It is idempotent and safe to re-run after a partial write: both
// slots are written in one transaction, so a failed run leaves nothing
// behind and the next startup retries in full.
func (s *Signer) EnsureKeypair() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.keys.Count()
	if err != nil {
		return fmt.Errorf("check key material: %w", err)
	}
	if count > 0 {
		return nil
	}

	private, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	publicPem, privatePem, err := encodePair(private)
	if err != nil {
		return err
	}

	sealedPublic, err := s.vault.Encrypt(publicPem)
	if err != nil {
		return err
	}
	sealedPrivate, err := s.vault.Encrypt(privatePem)
	if err != nil {
		return err
	}

	if err := s.keys.PutPair(sealedPublic, sealedPrivate); err != nil {
		return fmt.Errorf("persist keypair: %w", err)
	}

	s.private = private
	s.public = &private.PublicKey
	return nil
}

// Sign computes an RSA-SHA256 signature over the exact byte sequence given
// and returns it hex-encoded. Callers must pass a canonical serialization;
// byte-different input verifies as false even when semantically equal.
func (s *Signer) Sign(data []byte) (string, error) {
	private, err := s.privateKey()
	if err != nil {
		return "", err
	}

	release := s.acquire()
	defer release()

	digest := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, private, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	return hex.EncodeToString(signature), nil
}

// Verify checks a hex signature over data. A mismatch is a false result,
// not an error; a missing or unopenable key is ErrKeyUnavailable.
func (s *Signer) Verify(data []byte, signatureHex string) (bool, error) {
	public, err := s.publicKey()
	if err != nil {
		return false, err
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, nil
	}

	release := s.acquire()
	defer release()

	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(public, crypto.SHA256, digest[:], signature); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Signer) privateKey() (*rsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.private != nil {
		return s.private, nil
	}

	pemBytes, err := s.loadSlot(model.KeySlotPrivate)
	if err != nil {
		return nil, err
	}

	private, err := parsePrivatePem(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	s.private = private
	s.public = &private.PublicKey
	return private, nil
}

func (s *Signer) publicKey() (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.public != nil {
		return s.public, nil
	}

	pemBytes, err := s.loadSlot(model.KeySlotPublic)
	if err != nil {
		return nil, err
	}

	public, err := parsePublicPem(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	s.public = public
	return public, nil
}

// loadSlot fetches and opens one key slot. Missing material and vault
// integrity failures surface as ErrKeyUnavailable; a misconfigured vault
// keeps its own error so the operator sees the real problem.
func (s *Signer) loadSlot(slot string) ([]byte, error) {
	value, err := s.keys.Get(slot)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrKeyUnavailable
		}
		return nil, fmt.Errorf("load %s key: %w", slot, err)
	}

	plaintext, err := s.vault.Decrypt(value)
	if err != nil {
		if errors.Is(err, vault.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	return plaintext, nil
}

func encodePair(private *rsa.PrivateKey) (publicPem, privatePem []byte, err error) {
	publicDer, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encode public key: %w", err)
	}

	privateDer, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return nil, nil, fmt.Errorf("encode private key: %w", err)
	}

	publicPem = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDer})
	privatePem = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDer})
	return publicPem, privatePem, nil
}

func parsePrivatePem(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block in private key material")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Legacy rows may hold PKCS#1.
		if pkcs1, err1 := x509.ParsePKCS1PrivateKey(block.Bytes); err1 == nil {
			return pkcs1, nil
		}
		return nil, err
	}

	private, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return private, nil
}

func parsePublicPem(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block in public key material")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		if pkcs1, err1 := x509.ParsePKCS1PublicKey(block.Bytes); err1 == nil {
			return pkcs1, nil
		}
		return nil, err
	}

	public, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return public, nil
}
