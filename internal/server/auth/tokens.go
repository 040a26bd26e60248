// Package auth issues session tokens and checks second-factor codes.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrEmptySecret = errors.New("token signing secret is empty")

// Claims carries the owning user in Subject and the session id in ID.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs session tokens with HS256. The session registry stays
// the source of truth for validity: a token that verifies here is still
// rejected once its session is gone.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &TokenIssuer{secret: secret}, nil
}

// Issue returns a signed token for userID valid from issuedAt to expiresAt.
// Every call yields a distinct token.
func (i *TokenIssuer) Issue(userID string, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return token.SignedString(i.secret)
}

// Parse checks the signature of tokenString and returns its claims. Time
// based claims are not evaluated here; expiry is decided by the registry so
// an expired session reports sessionExpired rather than invalidSession.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidSession
	}
	return claims, nil
}
