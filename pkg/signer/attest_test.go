package signer

import (
	"testing"
	"time"

	"github.com/jayeshrk/securelogin/pkg/vault"
)

func TestAttestRoundTrip(t *testing.T) {
	s, _ := newTestSigner(t)
	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	token, err := s.Attest("alice", time.Now())
	if err != nil {
		t.Fatalf("Attest failed: %v", err)
	}

	subject, ok, err := s.VerifyAttestation(token)
	if err != nil {
		t.Fatalf("VerifyAttestation errored: %v", err)
	}
	if !ok {
		t.Fatal("attestation did not verify")
	}
	if subject != "alice" {
		t.Errorf("subject = %q, want %q", subject, "alice")
	}
}

func TestAttestationFromOtherKeyRejected(t *testing.T) {
	s, _ := newTestSigner(t)
	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	other := New(vault.New(testPassphrase), newMemKeys())
	if err := other.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	token, err := other.Attest("mallory", time.Now())
	if err != nil {
		t.Fatalf("Attest failed: %v", err)
	}

	_, ok, err := s.VerifyAttestation(token)
	if err != nil {
		t.Fatalf("VerifyAttestation errored: %v", err)
	}
	if ok {
		t.Error("attestation signed by a different key verified")
	}
}

func TestExpiredAttestationRejected(t *testing.T) {
	s, _ := newTestSigner(t)
	if err := s.EnsureKeypair(); err != nil {
		t.Fatalf("EnsureKeypair failed: %v", err)
	}

	token, err := s.Attest("alice", time.Now().Add(-2*attestationTTL))
	if err != nil {
		t.Fatalf("Attest failed: %v", err)
	}

	_, ok, err := s.VerifyAttestation(token)
	if err != nil {
		t.Fatalf("VerifyAttestation errored: %v", err)
	}
	if ok {
		t.Error("expired attestation verified")
	}
}
