package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fuelcoupons/internal/token"
)

func stationKeyPair(t *testing.T) (*token.Signer, *token.Verifier) {
	t.Helper()
	key, err := token.GenerateStationKey()
	if err != nil {
		t.Fatalf("generate station key: %v", err)
	}
	secret := []byte("middleware-test-secret")
	return token.NewSigner(secret, key), token.NewVerifier(secret, &key.PublicKey)
}

func TestStationAuthPassThroughWhenNotRequired(t *testing.T) {
	_, verifier := stationKeyPair(t)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := StationFromContext(r.Context()); ok {
			t.Fatalf("no station context expected on pass-through")
		}
	})

	h := StationAuth(verifier, false)(next)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/validate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if !called {
		t.Fatalf("next handler was not called")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestStationAuthValidToken(t *testing.T) {
	signer, verifier := stationKeyPair(t)

	tok, err := signer.SignStationToken(42, 7, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign station token: %v", err)
	}

	var got StationContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := StationFromContext(r.Context())
		if !ok {
			t.Fatalf("expected station context")
		}
		got = sc
	})

	h := StationAuth(verifier, true)(next)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/validate", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if got.StationID != 42 || got.DispenserID != 7 {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestStationAuthMissingToken(t *testing.T) {
	_, verifier := stationKeyPair(t)

	h := StationAuth(verifier, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not be called")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/validate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestStationAuthExpiredToken(t *testing.T) {
	signer, verifier := stationKeyPair(t)

	tok, err := signer.SignStationToken(42, 7, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sign station token: %v", err)
	}

	h := StationAuth(verifier, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not be called")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/validate", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestStationAuthWrongKey(t *testing.T) {
	signer, _ := stationKeyPair(t)
	_, otherVerifier := stationKeyPair(t)

	tok, err := signer.SignStationToken(42, 7, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign station token: %v", err)
	}

	h := StationAuth(otherVerifier, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not be called")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/redemptions/validate", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
