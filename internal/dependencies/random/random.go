package random

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Random generates the identifiers the service hands out: event codes,
// session tokens and guest ids
type Random interface {
	// String returns length characters drawn uniformly from alphabet
	String(length int, alphabet string) string

	// UUID returns a new random (version 4) UUID string
	UUID() string
}

// CryptoRandom draws from crypto/rand
type CryptoRandom struct{}

func New() *CryptoRandom {
	return &CryptoRandom{}
}

// String uses rejection sampling so every alphabet character is equally likely
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" || len(alphabet) > 256 {
		return ""
	}
	// Largest multiple of len(alphabet) that fits in a byte
	limit := 256 - 256%len(alphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}

func (r *CryptoRandom) UUID() string {
	return uuid.NewString()
}
