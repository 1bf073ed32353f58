package vault

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	envelopeVersion   = 1
	envelopeAlgorithm = "aes-256-gcm"

	// legacyMarker distinguishes rows written before encryption at rest
	// was introduced. They hold raw PEM text.
	legacyMarker = "-----BEGIN"
)

// Stored is a decoded at-rest value: either a legacy plaintext or a
// versioned envelope.
type Stored interface {
	isStored()
}

// Legacy is raw key material from before envelopes existed. It is passed
// through the decrypt path unchanged.
type Legacy string

func (Legacy) isStored() {}

// Envelope is a self-describing encrypted container.
type Envelope struct {
	Version    int    `json:"v"`
	Algorithm  string `json:"alg"`
	Nonce      []byte `json:"-"`
	Tag        []byte `json:"-"`
	Ciphertext []byte `json:"-"`
}

func (Envelope) isStored() {}

// envelopeJSON is the wire form; binary fields are base64.
type envelopeJSON struct {
	Version    int    `json:"v"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"iv"`
	Tag        string `json:"tag"`
	Ciphertext string `json:"ct"`
}

// Marshal serializes the envelope as JSON.
func (e Envelope) Marshal() (string, error) {
	raw, err := json.Marshal(envelopeJSON{
		Version:    e.Version,
		Algorithm:  e.Algorithm,
		Nonce:      base64.StdEncoding.EncodeToString(e.Nonce),
		Tag:        base64.StdEncoding.EncodeToString(e.Tag),
		Ciphertext: base64.StdEncoding.EncodeToString(e.Ciphertext),
	})
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// Decode classifies a stored value as Legacy or Envelope. The decision is
// made up front so crypto errors never masquerade as format errors.
func Decode(value string) (Stored, error) {
	if strings.Contains(value, legacyMarker) {
		return Legacy(value), nil
	}

	var wire envelopeJSON
	if err := json.Unmarshal([]byte(value), &wire); err != nil {
		return nil, ErrFormat
	}

	if wire.Version != envelopeVersion || wire.Algorithm != envelopeAlgorithm {
		return nil, ErrFormat
	}

	nonce, err := base64.StdEncoding.DecodeString(wire.Nonce)
	if err != nil {
		return nil, ErrFormat
	}
	tag, err := base64.StdEncoding.DecodeString(wire.Tag)
	if err != nil {
		return nil, ErrFormat
	}
	ciphertext, err := base64.StdEncoding.DecodeString(wire.Ciphertext)
	if err != nil {
		return nil, ErrFormat
	}

	return Envelope{
		Version:    wire.Version,
		Algorithm:  wire.Algorithm,
		Nonce:      nonce,
		Tag:        tag,
		Ciphertext: ciphertext,
	}, nil
}
