package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/cohort-tools/apiserver/internal/auth"
	"github.com/cohort-tools/apiserver/internal/services"
	"github.com/cohort-tools/apiserver/internal/store"
	"github.com/cohort-tools/apiserver/types"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]types.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id bson.ObjectID) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return types.User{}, store.ErrDuplicateEmail
	}
	user.ID = bson.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.Email] = user
	return user, nil
}

const testSecret = "handler-test-secret"

func newAuthRouter() *chi.Mux {
	repo := newMemUserRepo()
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	verifier := auth.NewTokenVerifier(testSecret)
	gate := auth.RequireAuth(verifier)
	authService := services.NewAuthService(repo, issuer, services.NewEventPublisher(nil))

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, gate)
	})
	return router
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

func TestSignupCreatesUserAndToken(t *testing.T) {
	router := newAuthRouter()

	rec := postJSON(t, router, "/auth/signup", `{"email":"ada@example.com","password":"123456","name":"Ada"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d body %q", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AuthToken == "" {
		t.Fatalf("expected an auth token")
	}
	if resp.User.Email != "ada@example.com" || resp.User.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not contain the password digest: %q", rec.Body.String())
	}
}

func TestSignupValidationStatuses(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"missing fields", `{"email":"a@b.com"}`, http.StatusBadRequest, "All fields are required"},
		{"bad email", `{"email":"nope","password":"123456","name":"Ada"}`, http.StatusBadRequest, "Invalid email format"},
		{"short password", `{"email":"a@b.com","password":"12345","name":"Ada"}`, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"malformed body", `{"email":`, http.StatusBadRequest, "Invalid request body"},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/auth/signup", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, tt.wantStatus)
			}
			if got := decodeMessage(t, rec); got != tt.wantMessage {
				t.Fatalf("unexpected message: got %q want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestSignupDuplicateEmailCaseInsensitive(t *testing.T) {
	router := newAuthRouter()

	if rec := postJSON(t, router, "/auth/signup", `{"email":"a@b.com","password":"123456","name":"Ada"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first signup failed: %d %q", rec.Code, rec.Body.String())
	}

	rec := postJSON(t, router, "/auth/signup", `{"email":"A@B.com","password":"123456","name":"Other"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "User already exists" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	router := newAuthRouter()

	if rec := postJSON(t, router, "/auth/signup", `{"email":"a@b.com","password":"123456","name":"Ada"}`); rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %q", rec.Code, rec.Body.String())
	}

	wrongPassword := postJSON(t, router, "/auth/login", `{"email":"a@b.com","password":"wrong!"}`)
	unknownEmail := postJSON(t, router, "/auth/login", `{"email":"nobody@b.com","password":"123456"}`)

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: got %d", rec.Code)
		}
		if got := decodeMessage(t, rec); got != "Invalid email or password" {
			t.Fatalf("unexpected message: %q", got)
		}
	}
}

func TestSignupThenVerifyEchoesClaims(t *testing.T) {
	router := newAuthRouter()

	rec := postJSON(t, router, "/auth/signup", `{"email":"ada@example.com","password":"123456","name":"Ada"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %q", rec.Code, rec.Body.String())
	}
	var signup AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &signup); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+signup.AuthToken)
	verifyRec := httptest.NewRecorder()
	router.ServeHTTP(verifyRec, req)

	if verifyRec.Code != http.StatusOK {
		t.Fatalf("verify failed: %d %q", verifyRec.Code, verifyRec.Body.String())
	}

	var verify VerifyResponse
	if err := json.Unmarshal(verifyRec.Body.Bytes(), &verify); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	if verify.User == nil {
		t.Fatalf("expected claims in verify response")
	}
	if verify.User.UserID != signup.User.ID.Hex() {
		t.Fatalf("claims id mismatch: got %q want %q", verify.User.UserID, signup.User.ID.Hex())
	}
	if verify.User.Email != "ada@example.com" || verify.User.Name != "Ada" {
		t.Fatalf("unexpected claims: %+v", verify.User)
	}
}

func TestVerifyWithoutToken(t *testing.T) {
	router := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "No token provided" {
		t.Fatalf("unexpected message: %q", got)
	}
}
