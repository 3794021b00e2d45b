// Package auth turns HS256 bearer tokens from the identity service into actors.
package auth

import (
	"errors"
	"fmt"
	"time"

	"ReelMarket/internal/api/domain/actor"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewTokenManager(secretKey, issuer string) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		now:       time.Now,
	}
}

// GenerateToken issues a token for act. The identity service owns issuance in
// production; ops tooling and tests use this.
func (tm *TokenManager) GenerateToken(act actor.Actor, ttl time.Duration) (string, error) {
	now := tm.now()
	claims := Claims{
		Role: string(act.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   act.ID.String(),
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secretKey)
}

// ParseToken validates signature, expiry and issuer. Only user roles are
// accepted; the system role is never carried by a token.
func (tm *TokenManager) ParseToken(tokenStr string) (actor.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return tm.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}
	role, err := actor.ParseRole(claims.Role)
	if err != nil || role == actor.RoleSystem {
		return actor.Actor{}, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}

	return actor.New(id, role), nil
}
