package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
)

// defaultTokenTTLMinutes applies when the config leaves the TTL unset.
const defaultTokenTTLMinutes = 15

// AuthHandler serves the credential exchange: a username/password pair
// in, a signed access token out. The socket handshake consumes that
// token; everything after login happens over the socket.
type AuthHandler struct {
	users  auth.UserRepository
	secCfg config.SecurityConfig
	logger *logging.Logger
}

// NewAuthHandler creates the login endpoint handler.
func NewAuthHandler(users auth.UserRepository, secCfg config.SecurityConfig, logger *logging.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		secCfg: secCfg,
		logger: logger.With("component", "api"),
	}
}

// Routes mounts the auth endpoints on a chi router.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/api/auth/login", h.handleLogin)
}

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleLogin verifies credentials against the user store and mints a
// JWT access token.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	user, err := auth.Authenticate(r.Context(), h.users, req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.logger.Warn("login rejected", "username", req.Username)
		writeUnauthorized(w, "invalid credentials")
		return
	case errors.Is(err, auth.ErrUserInactive):
		h.logger.Warn("login rejected for inactive account", "username", req.Username)
		writeForbidden(w, "account is inactive")
		return
	case err != nil:
		h.logger.Error("login failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	ttl := h.secCfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTLMinutes
	}

	token, err := auth.GenerateAccessToken(user, h.secCfg.JWT.Secret, ttl)
	if err != nil {
		h.logger.Error("minting access token", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	h.logger.Info("login succeeded", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60,
	})
}
