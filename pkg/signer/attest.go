package signer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// attestationTTL bounds how long a login attestation stays verifiable.
const attestationTTL = 30 * time.Minute

// Attest returns an RS256 JWT recording that the named user completed a
// two-factor login at the given instant. It is evidence, not a credential:
// session access uses opaque bearer tokens, never this token.
func (s *Signer) Attest(username string, at time.Time) (string, error) {
	private, err := s.privateKey()
	if err != nil {
		return "", err
	}

	release := s.acquire()
	defer release()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": username,
		"iat": at.Unix(),
		"exp": at.Add(attestationTTL).Unix(),
	})

	signed, err := token.SignedString(private)
	if err != nil {
		return "", fmt.Errorf("sign attestation: %w", err)
	}
	return signed, nil
}

// VerifyAttestation checks an attestation token and returns its subject.
// An invalid or expired token is a false result, not an error.
func (s *Signer) VerifyAttestation(tokenString string) (string, bool, error) {
	public, err := s.publicKey()
	if err != nil {
		return "", false, err
	}

	token, err := jwt.Parse(
		tokenString,
		func(t *jwt.Token) (interface{}, error) { return public, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", false, nil
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", false, nil
	}
	return subject, true, nil
}
