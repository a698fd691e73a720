package auth

import (
	"errors"
	"time"

	"github.com/cohort-tools/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued auth tokens.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrTokenExpired is returned for tokens with a valid signature that
	// are past their expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for tokens that cannot be parsed or
	// whose signature does not verify.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the payload embedded in an auth token. It snapshots the user
// record at issuance time; verification never re-reads the database, so the
// fields can be stale for at most the token lifetime.
type Claims struct {
	UserID string `json:"_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs user claims with a symmetric secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs an issuer. A zero ttl falls back to
// DefaultTokenTTL; a negative ttl produces already-expired tokens.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed HS256 token carrying the user's identity fields.
func (i *TokenIssuer) Issue(user types.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// TokenVerifier validates tokens signed with the matching secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses tokenString and returns its claims. Expired tokens yield
// ErrTokenExpired; every other failure yields ErrTokenInvalid.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
