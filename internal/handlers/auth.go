package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cohort-tools/apiserver/internal/auth"
	"github.com/cohort-tools/apiserver/internal/services"
	"github.com/cohort-tools/apiserver/types"
)

// AuthHandler provides the signup, login and token self-check endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers auth routes on the given router. Signup and login are
// public; verify sits behind the token gate.
func AuthRouter(r chi.Router, authService *services.AuthService, gate func(http.Handler) http.Handler) {
	handler := NewAuthHandler(authService)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.With(gate).Get("/verify", handler.Verify)
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the successful signup/login payload.
type AuthResponse struct {
	User      types.User `json:"user"`
	AuthToken string     `json:"authToken"`
}

// VerifyResponse echoes the claims attached by the token gate.
type VerifyResponse struct {
	User *auth.Claims `json:"user"`
}

// Signup creates a new user account and returns it with a fresh token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAllFieldsRequired):
			writeError(w, http.StatusBadRequest, "All fields are required")
		case errors.Is(err, services.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "Invalid email format")
		case errors.Is(err, services.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		case errors.Is(err, services.ErrUserExists):
			writeError(w, http.StatusBadRequest, "User already exists")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{User: user, AuthToken: token})
}

// Login verifies credentials and returns the user with a fresh token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCredentialsRequired):
			writeError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user, AuthToken: token})
}

// Verify echoes the claims the gate attached to the request context. It
// confirms token validity without a credential lookup.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{User: claims})
}
