package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// VerifierLength is the default PKCE code verifier length.
const VerifierLength = 64

const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateVerifier produces a cryptographically random PKCE code verifier of
// the given length over an alphanumeric alphabet.
//
// If the secure random source is unavailable the error must be treated as
// fatal; there is no fallback to a weak source.
func GenerateVerifier(length int) (string, error) {
	if length <= 0 {
		length = VerifierLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secure random source unavailable: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = verifierAlphabet[int(b)%len(verifierAlphabet)]
	}

	return string(out), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// the base64url-encoded SHA-256 digest, without padding.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
