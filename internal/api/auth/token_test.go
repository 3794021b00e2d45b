package auth

import (
	"testing"
	"time"

	"ReelMarket/internal/api/domain/actor"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("testsecret", "reelmarket-identity")
	customer := actor.New(uuid.New(), actor.RoleCustomer)

	token, err := tm.GenerateToken(customer, time.Hour)
	require.NoError(t, err)

	parsed, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, customer, parsed)
}

func TestParseToken_Rejects(t *testing.T) {
	tm := NewTokenManager("testsecret", "reelmarket-identity")
	now := time.Now()

	sign := func(secret string, method jwt.SigningMethod, claims Claims) string {
		key := any([]byte(secret))
		if method == jwt.SigningMethodNone {
			key = jwt.UnsafeAllowNoneSignatureType
		}
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() Claims {
		return Claims{
			Role: "restaurant",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "reelmarket-identity",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	testCases := []struct {
		name  string
		token func() string
	}{
		{
			name:  "garbage",
			token: func() string { return "invalid.token.string" },
		},
		{
			name:  "wrong signature",
			token: func() string { return sign("wrongsecret", jwt.SigningMethodHS256, valid()) },
		},
		{
			name: "expired",
			token: func() string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
				return sign("testsecret", jwt.SigningMethodHS256, c)
			},
		},
		{
			name: "missing expiry",
			token: func() string {
				c := valid()
				c.ExpiresAt = nil
				return sign("testsecret", jwt.SigningMethodHS256, c)
			},
		},
		{
			name: "foreign issuer",
			token: func() string {
				c := valid()
				c.Issuer = "someone-else"
				return sign("testsecret", jwt.SigningMethodHS256, c)
			},
		},
		{
			name:  "unsigned",
			token: func() string { return sign("", jwt.SigningMethodNone, valid()) },
		},
		{
			name: "subject is not a uuid",
			token: func() string {
				c := valid()
				c.Subject = "42"
				return sign("testsecret", jwt.SigningMethodHS256, c)
			},
		},
		{
			name: "system role",
			token: func() string {
				c := valid()
				c.Role = "system"
				return sign("testsecret", jwt.SigningMethodHS256, c)
			},
		},
		{
			name: "unknown role",
			token: func() string {
				c := valid()
				c.Role = "admin"
				return sign("testsecret", jwt.SigningMethodHS256, c)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tm.ParseToken(tc.token())

			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
