package auth

import (
	"crypto/rsa"
	"fmt"
	"os"

	jwt "github.com/golang-jwt/jwt/v5"
)

// KeyPair holds the RSA material used to sign and verify access tokens.
// Loaded once at process start and read-only thereafter; runtime rotation is
// a deployment concern, not an API.
type KeyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// LoadKeyPair parses a PEM-encoded RSA private key and derives the public
// half. Callers treat an error as a fatal configuration problem.
func LoadKeyPair(privatePEM []byte) (*KeyPair, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	return &KeyPair{private: key, public: &key.PublicKey}, nil
}

// LoadKeyPairFromFile reads the PEM file at path and parses it.
func LoadKeyPairFromFile(path string) (*KeyPair, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}
	return LoadKeyPair(pemBytes)
}

// Private returns the signing key.
func (k *KeyPair) Private() *rsa.PrivateKey {
	return k.private
}

// Public returns the verification key.
func (k *KeyPair) Public() *rsa.PublicKey {
	return k.public
}
