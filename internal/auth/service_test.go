package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatewatch/pkg/domain-errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewTokenService("test-signing-key", "gatewatch"), nil)
	require.NoError(t, svc.AddOperator("sarah", "hunter2"))
	return svc
}

func TestLogin(t *testing.T) {
	svc := newService(t)

	t.Run("valid credentials issue a verifiable token", func(t *testing.T) {
		token, err := svc.Login(context.Background(), "sarah", "hunter2")
		require.NoError(t, err)

		operator, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "sarah", operator)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "sarah", "wrong")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("unknown operator is rejected identically", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody", "hunter2")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}

func TestAddOperator(t *testing.T) {
	svc := newService(t)

	err := svc.AddOperator("", "pw")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	// Re-enrolling replaces the credential.
	require.NoError(t, svc.AddOperator("sarah", "newpass"))
	_, err = svc.Login(context.Background(), "sarah", "hunter2")
	assert.Error(t, err)
	_, err = svc.Login(context.Background(), "sarah", "newpass")
	assert.NoError(t, err)
}

func TestTokenValidation(t *testing.T) {
	tokens := NewTokenService("test-signing-key", "gatewatch")

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := tokens.Issue("sarah", -time.Minute)
		require.NoError(t, err)
		_, err = tokens.Validate(token)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		other := NewTokenService("other-key", "gatewatch")
		token, err := other.Issue("sarah", time.Hour)
		require.NoError(t, err)
		_, err = tokens.Validate(token)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := tokens.Validate("not-a-token")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}
