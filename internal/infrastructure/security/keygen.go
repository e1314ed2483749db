package security

import (
	"crypto/rand"
	"math/big"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomKeyGenerator produces internal keys from crypto/rand.
// Uniqueness is enforced by the store, not assumed from entropy.
type RandomKeyGenerator struct {
	length int
}

// NewRandomKeyGenerator returns a generator of domain.InternalKeyLength-character keys.
func NewRandomKeyGenerator() *RandomKeyGenerator {
	return &RandomKeyGenerator{length: domain.InternalKeyLength}
}

// Generate returns a new key. It panics only if the system entropy source fails.
func (g *RandomKeyGenerator) Generate() string {
	max := big.NewInt(int64(len(keyAlphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("security: entropy source failed: " + err.Error())
		}
		buf[i] = keyAlphabet[n.Int64()]
	}
	return string(buf)
}

var _ ports.KeyGenerator = (*RandomKeyGenerator)(nil)
