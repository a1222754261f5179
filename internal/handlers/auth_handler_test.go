package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"fuelcoupons/internal/config"
	"fuelcoupons/internal/models"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTExpiresInSeconds: 3600,
	}
}

func TestSignupSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	h := NewAuthHandler(db, authTestConfig())

	body, _ := json.Marshal(models.SignupRequest{
		Email:    "operator@example.com",
		Password: "password123",
		Name:     "Operator",
		UserName: "operator",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Signup(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "operator@example.com" {
		t.Fatalf("unexpected email: %v", resp["email"])
	}
	if resp["id"] == "" {
		t.Fatalf("expected generated id, got %v", resp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	h := NewAuthHandler(db, authTestConfig())

	body, _ := json.Marshal(models.SignupRequest{
		Email:    "operator@example.com",
		Password: "password123",
		Name:     "Operator",
		UserName: "operator",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Signup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestSignupValidationError(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := NewAuthHandler(db, authTestConfig())

	body, _ := json.Marshal(models.SignupRequest{
		Email:    "not-an-email",
		Password: "short",
		Name:     "Operator",
		UserName: "operator",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Signup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestLoginSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	rows := sqlmock.NewRows([]string{"id", "email", "name", "user_name", "password_hash", "created_at"}).
		AddRow("u1", "operator@example.com", "Operator", "operator", string(hash), time.Now())

	mock.ExpectQuery(`SELECT id, email, name, user_name, password_hash, created_at\s+FROM users`).
		WithArgs("operator@example.com").
		WillReturnRows(rows)

	h := NewAuthHandler(db, authTestConfig())

	body, _ := json.Marshal(models.LoginRequest{Identifier: "operator@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp models.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token, got %s", w.Body.String())
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", resp.ExpiresIn)
	}
	if resp.Email != "operator@example.com" {
		t.Fatalf("unexpected email: %s", resp.Email)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	rows := sqlmock.NewRows([]string{"id", "email", "name", "user_name", "password_hash", "created_at"}).
		AddRow("u1", "operator@example.com", "Operator", "operator", string(hash), time.Now())

	mock.ExpectQuery(`SELECT id, email, name, user_name, password_hash, created_at\s+FROM users`).
		WithArgs("operator@example.com").
		WillReturnRows(rows)

	h := NewAuthHandler(db, authTestConfig())

	body, _ := json.Marshal(models.LoginRequest{Identifier: "operator@example.com", Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["error"] != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %v", resp["error"])
	}
}

func TestLoginUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, name, user_name, password_hash, created_at\s+FROM users`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "user_name", "password_hash", "created_at"}))

	h := NewAuthHandler(db, authTestConfig())

	body, _ := json.Marshal(models.LoginRequest{Identifier: "nobody@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestLoginVerboseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, name, user_name, password_hash, created_at\s+FROM users`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "user_name", "password_hash", "created_at"}))

	cfg := authTestConfig()
	cfg.AuthVerboseErrors = true
	h := NewAuthHandler(db, cfg)

	body, _ := json.Marshal(models.LoginRequest{Identifier: "nobody@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["error"] != "invalid_identifier" {
		t.Fatalf("expected invalid_identifier, got %v", resp["error"])
	}
}
