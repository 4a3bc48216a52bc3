package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short-lived access tokens bound the window a stolen
// token stays useful; refresh tokens live longer but are ledger-backed and
// single-use.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType discriminates the two token kinds this service mints. The type
// is embedded as a claim so an access token can never be replayed where a
// refresh token is expected, and vice versa.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// wrong signing method, expiry, or type mismatch. Callers must not be able
// to tell the causes apart.
var ErrInvalidToken = errors.New("jwtx: invalid token")

// Claims carried by both token types. TID is only set on refresh tokens and
// identifies the ledger row the token was issued against.
type Claims struct {
	jwt.RegisteredClaims

	Type string `json:"type"`
	TID  string `json:"tid,omitempty"`
}

// Codec signs and verifies access and refresh tokens with HMAC-SHA256.
// The two token types use distinct key material so a leaked access secret
// cannot be used to forge refresh tokens.
type Codec struct {
	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// SignAccess mints a short-lived stateless access token for subject.
func (c *Codec) SignAccess(subject string) (string, error) {
	return c.sign(subject, TokenAccess, "", c.AccessTTL, c.AccessSecret)
}

// SignRefresh mints a refresh token for subject carrying the ledger
// instance id tid.
func (c *Codec) SignRefresh(subject, tid string) (string, error) {
	return c.sign(subject, TokenRefresh, tid, c.RefreshTTL, c.RefreshSecret)
}

func (c *Codec) sign(subject string, typ TokenType, tid string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: string(typ),
		TID:  tid,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses raw, checks its signature against the secret belonging to
// want, validates the time claims, and enforces the type discriminator.
// Any failure collapses into ErrInvalidToken.
func (c *Codec) Verify(raw string, want TokenType) (Claims, error) {
	secret := c.AccessSecret
	if want == TokenRefresh {
		secret = c.RefreshSecret
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Type != string(want) {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
