// internal/token/keys.go
package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ParseStationPrivateKey parses a PEM-encoded ECDSA private key used for
// station access token signing.
func ParseStationPrivateKey(pemKey []byte) (*ecdsa.PrivateKey, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse station private key: %w", err)
	}
	return key, nil
}

// GenerateStationKey creates an ephemeral P-256 key pair. Used when no key
// is configured (development) so the service can still start; tokens signed
// with it do not survive a restart.
func GenerateStationKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}
