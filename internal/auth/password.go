package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is applied when the configured cost is out of range.
const DefaultBcryptCost = 10

// Hasher performs one-way password hashing and verification.
type Hasher struct {
	cost int
}

// NewHasher builds a hasher with the given bcrypt cost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted hash from the plaintext. The hash encodes its own
// salt and cost, so verification needs no side channel.
func (h *Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the hash. A malformed hash is treated
// as a mismatch, never an error.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
