// internal/token/verifier.go
package token

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fuelcoupons/internal/models"
)

var (
	uuidSegmentRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	digitsRe      = regexp.MustCompile(`^\d{1,19}$`)
	nonceRe       = regexp.MustCompile(`^[0-9a-f]{16}$`)
	couponCodeRe  = regexp.MustCompile(`^[A-Z0-9-]{4,32}$`)
)

// Verifier checks coupon token authenticity (HMAC) and station token
// authenticity (ES256 public key).
type Verifier struct {
	secret     []byte
	stationPub *ecdsa.PublicKey
	issuer     string
}

func NewVerifier(secret []byte, stationPub *ecdsa.PublicKey) *Verifier {
	return &Verifier{
		secret:     secret,
		stationPub: stationPub,
		issuer:     "fuelcoupons",
	}
}

type couponTokenParts struct {
	CampaignID string
	IssuedAt   time.Time
	Nonce      string
	CouponCode string
}

func splitCouponToken(tok string) (*couponTokenParts, error) {
	segs := strings.Split(tok, ".")
	if len(segs) != 5 {
		return nil, fmt.Errorf("expected 5 segments, got %d", len(segs))
	}
	if segs[0] != TokenPrefix {
		return nil, fmt.Errorf("unexpected prefix %q", segs[0])
	}
	if !uuidSegmentRe.MatchString(segs[1]) {
		return nil, errors.New("campaign segment is not a uuid")
	}
	if !digitsRe.MatchString(segs[2]) {
		return nil, errors.New("timestamp segment is not numeric")
	}
	if !nonceRe.MatchString(segs[3]) {
		return nil, errors.New("nonce segment is not 16 hex characters")
	}
	if !couponCodeRe.MatchString(segs[4]) {
		return nil, errors.New("coupon code segment has unexpected characters")
	}
	unix, err := strconv.ParseInt(segs[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	return &couponTokenParts{
		CampaignID: segs[1],
		IssuedAt:   time.Unix(unix, 0).UTC(),
		Nonce:      segs[3],
		CouponCode: segs[4],
	}, nil
}

// IsWellFormed performs the structural check on a presented token before any
// cryptographic work. Malformed input gets a distinct violation kind.
func IsWellFormed(tok string) bool {
	_, err := splitCouponToken(tok)
	return err == nil
}

// ParseIssuedAt extracts the issuance timestamp embedded in the token.
func ParseIssuedAt(tok string) (time.Time, error) {
	parts, err := splitCouponToken(tok)
	if err != nil {
		return time.Time{}, err
	}
	return parts.IssuedAt, nil
}

// VerifySignature recomputes the expected signature from the coupon record's
// immutable issuance fields and compares it against the stored signature in
// constant time. The presented token's claims are cross-checked against the
// record, never trusted on their own. Any mismatch, including an empty
// signature, fails closed.
func (v *Verifier) VerifySignature(tok, signature string, c *models.Coupon) bool {
	if signature == "" || c == nil {
		return false
	}
	parts, err := splitCouponToken(tok)
	if err != nil {
		return false
	}
	if parts.CampaignID != c.CampaignID ||
		parts.CouponCode != c.CouponCode ||
		parts.IssuedAt.Unix() != c.TokenIssuedAt.Unix() {
		return false
	}
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(tok))
	return hmac.Equal(mac.Sum(nil), want)
}

// IsStaleByTimestamp reports whether the token's embedded issuance timestamp
// is older than maxAge, independent of the coupon's own validity window.
// Unparseable tokens are treated as stale.
func IsStaleByTimestamp(tok string, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	issuedAt, err := ParseIssuedAt(tok)
	if err != nil {
		return true
	}
	return now.Sub(issuedAt) > maxAge
}

// StationClaims are the verified claims of a station access token.
type StationClaims struct {
	StationID   int64 `json:"station_id"`
	DispenserID int64 `json:"dispenser_id"`
	jwt.RegisteredClaims
}

// VerifyStationToken parses and verifies an ES256 station access token.
func (v *Verifier) VerifyStationToken(tok string) (*StationClaims, error) {
	if v.stationPub == nil {
		return nil, errors.New("station token public key is not configured")
	}
	claims := &StationClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.stationPub, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}), jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
