// Package auth verifies the bearer tokens presented to the rules service.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/findfriends/tractor/service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for missing, malformed or expired tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Claims are the token claims. Subject is the player id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier issues and checks HS256 tokens.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier builds a Verifier for tokens signed with secret.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for player with role, valid for ttl.
func (v *Verifier) Issue(player string, role models.Role, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := v.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses token and returns the caller it names.
func (v *Verifier) Verify(token string) (models.Caller, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return models.Caller{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !claims.Role.Valid() {
		return models.Caller{}, fmt.Errorf("%w: unknown role %q", ErrUnauthorized, claims.Role)
	}
	if claims.Role == models.RoleClient && claims.Subject == "" {
		return models.Caller{}, fmt.Errorf("%w: client token without subject", ErrUnauthorized)
	}
	return models.Caller{Player: claims.Subject, Role: claims.Role}, nil
}

// TokenFromRequest extracts a bearer token from the Authorization header or,
// for browser websocket clients that cannot set headers, the "token" query
// parameter.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("%w: malformed Authorization header", ErrUnauthorized)
		}
		return strings.TrimSpace(token), nil
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, nil
	}
	return "", fmt.Errorf("%w: no token", ErrUnauthorized)
}

// Authenticate verifies the request's token.
func (v *Verifier) Authenticate(r *http.Request) (models.Caller, error) {
	token, err := TokenFromRequest(r)
	if err != nil {
		return models.Caller{}, err
	}
	return v.Verify(token)
}
