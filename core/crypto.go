package core

// crypto.go — CryptoPrimitives (spec §4.1).
//
// All crypto comes from the Go standard library: the spec's proof scheme is
// a plain SHA-256/HMAC-SHA256 challenge-response, not a pairing-based
// construction, so none of the sibling project's curve libraries
// (herumi/bls, gnark-crypto, secp256k1, ...) apply here — see DESIGN.md.

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// Sha256 returns the SHA-256 digest of data.
func Sha256(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HmacSha256 returns HMAC-SHA256(key, msg).
func HmacSha256(key, msg []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// SecureRandom draws n bytes from the OS CSPRNG. Per spec §4.1 it must never
// fall back to a weaker generator: on source exhaustion it returns a fatal
// entropy-exhausted Error instead.
func SecureRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, WrapError(CodeEntropyExhausted, SeverityFatalProcess, fmt.Errorf("secure_random(%d): %w", n, err))
	}
	return b, nil
}

// CtEqual compares a and b in constant time over the common prefix and
// returns false on length mismatch without short-circuiting on it — the
// comparison cost never reveals where (or whether) the values differ.
func CtEqual(a, b []byte) bool {
	if len(a) != len(b) {
		// Still walk a constant-time compare over the common prefix so the
		// mismatch is not reported by an early exit.
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		subtle.ConstantTimeCompare(a[:n], b[:n])
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
