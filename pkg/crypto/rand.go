package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"io"
)

// RandomString returns a URL-safe random string of the given length.
func RandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// randReader returns a deterministic reader for a non-empty seed and the
// system CSPRNG otherwise. Deterministic randomness is what makes two peers
// derive the same certificates from a shared key.
func randReader(seed string) io.Reader {
	if seed == "" {
		return rand.Reader
	}
	return &chainReader{state: []byte(seed)}
}

// chainReader produces a deterministic byte stream by iterating SHA-512 over
// its state, emitting the second half of each digest.
type chainReader struct {
	state []byte
}

func (c *chainReader) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		sum := sha512.Sum512(c.state)
		c.state = sum[:sha512.Size/2]
		n += copy(b[n:], sum[sha512.Size/2:])
	}
	return n, nil
}

func randomName(length int, rng io.Reader) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rng, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}
