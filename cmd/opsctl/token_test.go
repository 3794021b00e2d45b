package main

import (
	"bytes"
	"strings"
	"testing"

	"ReelMarket/internal/api/auth"
	"ReelMarket/internal/api/domain/actor"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestIssueToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ISSUER", "reelmarket-test")

	t.Run("should mint token that the api accepts", func(t *testing.T) {
		// given
		id := uuid.New()

		// when
		token, err := runCmd(t, "issue-token", "--role", "restaurant", "--user", id.String())

		// then
		require.NoError(t, err)
		act, err := auth.NewTokenManager("test-secret", "reelmarket-test").ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, actor.New(id, actor.RoleRestaurant), act)
	})

	testCases := []struct {
		name string
		args []string
	}{
		{name: "system role", args: []string{"issue-token", "--role", "system"}},
		{name: "unknown role", args: []string{"issue-token", "--role", "courier"}},
		{name: "malformed user", args: []string{"issue-token", "--user", "42"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			_, err := runCmd(t, tc.args...)

			// then
			assert.Error(t, err)
		})
	}
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := runCmd(t, "issue-token")

	assert.ErrorContains(t, err, "load config")
}
