package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// GenerateToken returns a random URL-safe secret of n bytes of entropy
// together with its storage digest. The plaintext goes to the user; only
// the digest is persisted.
func GenerateToken(n int) (string, []byte, error) {
	if n <= 0 {
		n = 32
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken produces the at-rest digest of a high-entropy token. Tokens
// are random, so a single fast digest is enough; human-chosen passwords
// go through argon2 instead (see password.go).
func HashToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

// VerifyToken recomputes the digest of the candidate and compares it to
// the stored digest in constant time. A malformed digest simply fails.
func VerifyToken(candidate string, digest []byte) bool {
	computed := HashToken(candidate)
	return subtle.ConstantTimeCompare(computed, digest) == 1
}
