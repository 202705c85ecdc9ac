// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard registered claims plus the user id. Subject
// and UserID hold the same value; UserID keeps the payload readable by
// clients that only look at custom claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// TokenService signs and verifies HS256 session tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService builds a TokenService. A non-positive validity falls back
// to common.DefaultTokenValidity.
func NewTokenService(secretKey []byte, validity time.Duration, opts ...Option) *TokenService {
	if validity <= 0 {
		validity = common.DefaultTokenValidity
	}
	s := &TokenService{secretKey: secretKey, validity: validity, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validity is the fixed lifetime of issued tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue returns a signed token for userID and its lifetime in seconds.
func (s *TokenService) Issue(userID, email string) (string, int, error) {
	issuedAt := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.validity)),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(s.validity.Seconds()), nil
}

// Verify returns the user id bound to tokenString. It fails with
// common.ErrTokenExpired when the signature is good but the token is past
// its expiry, and with common.ErrInvalidToken for anything else.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.UserID != claims.Subject {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
