package signer

import (
	"errors"
	"sync"
	"testing"

	"github.com/jayeshrk/securelogin/pkg/store"
	"github.com/jayeshrk/securelogin/pkg/store/storetest"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

const testPassphrase = "a-passphrase-long-enough"

// memKeys is an in-memory store.KeysStore.
type memKeys struct {
	mu    sync.Mutex
	slots map[string]string
}

func newMemKeys() *memKeys {
	return &memKeys{slots: map[string]string{}}
}

func (m *memKeys) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.slots)), nil
}

func (m *memKeys) Get(slot string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.slots[slot]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (m *memKeys) PutPair(publicValue, privateValue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots["public"] = publicValue
	m.slots["private"] = privateValue
	return nil
}

func newTestSigner(t *testing.T) (*Signer, *memKeys) {
	t.Helper()
	keys := newMemKeys()
	return New(vault.New(testPassphrase), keys), keys
}

func TestEnsureKeypairIdempotent(t *testing.T) {
	s, keys := newTestSigner(t)

	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("first EnsureKeypair failed: %v", err)
	}

	first, err := keys.Get("private")
	if err != nil {
		t.Fatalf("private slot missing: %v", err)
	}

	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("second EnsureKeypair failed: %v", err)
	}

	second, _ := keys.Get("private")
	if first != second {
		t.Error("EnsureKeypair regenerated existing key material")
	}
}

func TestKeypairPersistFailureLeavesNoSlots(t *testing.T) {
	mem := storetest.New()
	s := New(vault.New(testPassphrase), mem.Keys())

	mem.FailKeyWrites = true
	if err := s.EnsureKeypair(); err == nil {
		t.Fatal("EnsureKeypair succeeded despite refused key writes")
	}

	// A failed run persists neither slot, so signing stays unavailable.
	count, err := mem.Keys().Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no key slots after failed persist, found %d", count)
	}
	if _, err := s.Sign([]byte("x")); !errors.Is(err, ErrKeyUnavailable) {
		t.Errorf("Sign: expected ErrKeyUnavailable, got %v", err)
	}

	// The next run starts over and persists both slots together.
	mem.FailKeyWrites = false
	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("retried EnsureKeypair failed: %v", err)
	}
	for _, slot := range []string{"public", "private"} {
		if _, err := mem.Keys().Get(slot); err != nil {
			t.Errorf("%s slot missing after retry: %v", slot, err)
		}
	}
	if _, err := s.Sign([]byte("x")); err != nil {
		t.Errorf("Sign after retry failed: %v", err)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s, _ := newTestSigner(t)
	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	data := []byte(`{"username":"alice","timestamp":1700000000}`)
	signature, err := s.Sign(data)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	ok, err := s.Verify(data, signature)
	if err != nil {
		t.Fatalf("Verify errored: %v", err)
	}
	if !ok {
		t.Error("signature over identical data did not verify")
	}
}

func TestVerifyMismatchIsFalseNotError(t *testing.T) {
	s, _ := newTestSigner(t)
	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	signature, err := s.Sign([]byte("original data"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		sig  string
	}{
		{name: "different data", data: []byte("other data"), sig: signature},
		{name: "garbage signature", data: []byte("original data"), sig: "deadbeef"},
		{name: "not hex", data: []byte("original data"), sig: "zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.Verify(tt.data, tt.sig)
			if err != nil {
				t.Fatalf("Verify errored: %v", err)
			}
			if ok {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestOperationsWithoutKeyMaterial(t *testing.T) {
	s, _ := newTestSigner(t)

	if _, err := s.Sign([]byte("x")); !errors.Is(err, ErrKeyUnavailable) {
		t.Errorf("Sign: expected ErrKeyUnavailable, got %v", err)
	}
	if _, err := s.Verify([]byte("x"), "00"); !errors.Is(err, ErrKeyUnavailable) {
		t.Errorf("Verify: expected ErrKeyUnavailable, got %v", err)
	}
}

func TestWrongPassphraseIsKeyUnavailable(t *testing.T) {
	keys := newMemKeys()
	good := New(vault.New(testPassphrase), keys)
	if err := good.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	bad := New(vault.New("completely-different-secret"), keys)
	if _, err := bad.Sign([]byte("x")); !errors.Is(err, ErrKeyUnavailable) {
		t.Errorf("expected ErrKeyUnavailable, got %v", err)
	}
}

func TestMisconfiguredVaultSurfacesConfigurationError(t *testing.T) {
	keys := newMemKeys()
	s := New(vault.New("short"), keys)

	if err := s.EnsureKeypair(); !errors.Is(err, vault.ErrConfiguration) {
		t.Errorf("EnsureKeypair: expected ErrConfiguration, got %v", err)
	}

	// Even with material persisted by a healthy signer, a degraded vault
	// must report its own error, not a generic key failure.
	good := New(vault.New(testPassphrase), keys)
	if err := good.EnsureKeypair(); err != nil {
		t.Fatalf("setup EnsureKeypair failed: %v", err)
	}
	if _, err := s.Sign([]byte("x")); !errors.Is(err, vault.ErrConfiguration) {
		t.Errorf("Sign: expected ErrConfiguration, got %v", err)
	}
}

func TestLegacyPlaintextKeyMaterial(t *testing.T) {
	keys := newMemKeys()
	good := New(vault.New(testPassphrase), keys)
	if err := good.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	// Rewrite the slots as raw PEM, the pre-envelope storage format.
	publicPem, _ := good.vault.Decrypt(keys.slots["public"])
	privatePem, _ := good.vault.Decrypt(keys.slots["private"])
	keys.slots["public"] = string(publicPem)
	keys.slots["private"] = string(privatePem)

	legacy := New(vault.New(testPassphrase), keys)
	signature, err := legacy.Sign([]byte("payload"))
	if err != nil {
		t.Fatalf("Sign over legacy material failed: %v", err)
	}
	ok, err := legacy.Verify([]byte("payload"), signature)
	if err != nil || !ok {
		t.Errorf("Verify over legacy material: ok=%v err=%v", ok, err)
	}
}
