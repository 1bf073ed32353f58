// Package qr renders one-time codes as QR images for authenticator-style
// scanning during registration.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 300

// payload is what ends up inside the QR image.
type payload struct {
	Username string `json:"username"`
	Code     string `json:"otp"`
}

// DataURL encodes the username and code as a PNG QR image and returns it
// as a base64 data URL suitable for direct embedding in an <img> tag.
func DataURL(username, code string) (string, error) {
	content, err := json.Marshal(payload{Username: username, Code: code})
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	png, err := qrcode.Encode(string(content), qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("render qr image: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
