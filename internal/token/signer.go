// internal/token/signer.go
package token

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPrefix is the version marker leading every coupon token.
const TokenPrefix = "FC1"

const nonceBytes = 8

// Signer issues signed coupon tokens (symmetric HMAC-SHA256) and station
// access tokens (asymmetric ES256 JWTs).
type Signer struct {
	secret     []byte
	stationKey *ecdsa.PrivateKey
	issuer     string
}

func NewSigner(secret []byte, stationKey *ecdsa.PrivateKey) *Signer {
	return &Signer{
		secret:     secret,
		stationKey: stationKey,
		issuer:     "fuelcoupons",
	}
}

// BuildCouponToken joins the immutable issuance fields into the canonical
// dot-delimited payload: FC1.<campaignID>.<unixIssuedAt>.<nonce>.<couponCode>
func BuildCouponToken(campaignID, couponCode string, issuedAt time.Time, nonce string) string {
	return strings.Join([]string{
		TokenPrefix,
		campaignID,
		strconv.FormatInt(issuedAt.Unix(), 10),
		nonce,
		couponCode,
	}, ".")
}

// SignCouponToken builds the canonical token for a coupon and returns it
// together with its detached hex-encoded HMAC-SHA256 signature.
func (s *Signer) SignCouponToken(campaignID, couponCode string, issuedAt time.Time) (string, string, error) {
	if len(s.secret) == 0 {
		return "", "", errors.New("coupon token secret is not configured")
	}
	nonce, err := randomHex(nonceBytes)
	if err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}
	tok := BuildCouponToken(campaignID, couponCode, issuedAt, nonce)
	return tok, s.sign(tok), nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignStationToken issues a short-lived ES256 JWT authorizing one dispenser
// at one station until expiresAt.
func (s *Signer) SignStationToken(stationID, dispenserID int64, expiresAt time.Time) (string, error) {
	if s.stationKey == nil {
		return "", errors.New("station token private key is not configured")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":          s.issuer,
		"station_id":   stationID,
		"dispenser_id": dispenserID,
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.stationKey)
}

const couponCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCouponCode returns a human-readable code like FUEL-7KQ2-M9XD.
// The charset omits easily confused characters (0/O, 1/I).
func GenerateCouponCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, 0, 14)
	out = append(out, "FUEL-"...)
	for i, c := range b {
		if i == 4 {
			out = append(out, '-')
		}
		out = append(out, couponCodeCharset[int(c)%len(couponCodeCharset)])
	}
	return string(out), nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
