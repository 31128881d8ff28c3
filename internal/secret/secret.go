// Package secret generates the per-run archive password.
package secret

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// Bits is the entropy of a generated password.
const Bits = 160

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generate returns a random password rendered as lowercase base32
// (32 characters, letters a-z and digits 2-7).
func Generate() (string, error) {
	buf := make([]byte, Bits/8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(buf)), nil
}
