package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hearthlabs/hearth-core/internal/api"
	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

type harness struct {
	srv   *httptest.Server
	users auth.UserRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			email TEXT,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_by TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (created_by) REFERENCES users(id) ON DELETE SET NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating users table: %v", err)
	}

	users := auth.NewUserRepository(db)
	handler := api.NewAuthHandler(users, config.SecurityConfig{
		JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15},
	}, logging.Default())

	router := chi.NewRouter()
	handler.Routes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &harness{srv: srv, users: users}
}

func (h *harness) seedUser(t *testing.T, username, password string, role auth.Role, active bool) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := &auth.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	if err := h.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

func (h *harness) login(t *testing.T, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshalling request: %v", err)
	}
	resp, err := http.Post(h.srv.URL+"/api/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/auth/login: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLogin_MintsUsableToken(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedUser(t, "carol", "opening the pod bay doors", auth.RoleAdmin, true)

	resp := h.login(t, map[string]string{"username": "carol", "password": "opening the pod bay doors"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", body.TokenType)
	}
	if body.ExpiresIn != 15*60 {
		t.Errorf("expires_in = %d, want %d", body.ExpiresIn, 15*60)
	}

	// The minted token must carry what the socket handshake checks.
	claims, err := auth.ParseToken(body.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != seeded.ID {
		t.Errorf("subject = %q, want %q", claims.Subject, seeded.ID)
	}
	if claims.Role != auth.RoleAdmin {
		t.Errorf("role = %q, want %q", claims.Role, auth.RoleAdmin)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "carol", "opening the pod bay doors", auth.RoleUser, true)

	resp := h.login(t, map[string]string{"username": "carol", "password": "hal, open the doors"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	h := newHarness(t)

	resp := h.login(t, map[string]string{"username": "nobody", "password": "whatever"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "carol", "opening the pod bay doors", auth.RoleUser, false)

	resp := h.login(t, map[string]string{"username": "carol", "password": "opening the pod bay doors"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.srv.URL+"/api/auth/login", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST /api/auth/login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp2 := h.login(t, map[string]string{"username": "carol"})
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing password", resp2.StatusCode)
	}
}
