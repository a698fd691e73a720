package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/cohort-tools/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func testUser() types.User {
	return types.User{
		ID:    bson.NewObjectID(),
		Email: "ada@example.com",
		Name:  "Ada Lovelace",
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	user := testUser()
	issuer := NewTokenIssuer("test-secret", time.Hour)
	verifier := NewTokenVerifier("test-secret")

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Fatalf("unexpected user id: got %q want %q", claims.UserID, user.ID.Hex())
	}
	if claims.Email != user.Email {
		t.Fatalf("unexpected email: got %q want %q", claims.Email, user.Email)
	}
	if claims.Name != user.Name {
		t.Fatalf("unexpected name: got %q want %q", claims.Name, user.Name)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatalf("expected iat and exp to be set")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("unexpected token lifetime: got %v want %v", got, time.Hour)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	verifier := NewTokenVerifier("secret-b")

	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	verifier := NewTokenVerifier("test-secret")

	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")
	if _, err := verifier.Verify("definitely.not.a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
