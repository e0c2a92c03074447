package services

import (
	"testing"
	"time"

	"morpheus/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_CurrentUser(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, err := auth.GenerateToken(alice)
	require.NoError(t, err)

	user, err := auth.CurrentUser(token)
	require.NoError(t, err)
	assert.Equal(t, alice, user)
}

func TestAuthService_ValidateToken(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	other := NewAuthService("other-secret", time.Hour)
	expired := NewAuthService("secret", -time.Minute)

	foreign, err := other.GenerateToken(alice)
	require.NoError(t, err)
	stale, err := expired.GenerateToken(alice)
	require.NoError(t, err)
	anonymous, err := auth.GenerateToken(domain.User{Name: "nobody"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "missing", token: "", want: ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "wrong secret", token: foreign, want: ErrInvalidToken},
		{name: "expired", token: stale, want: ErrExpiredToken},
		{name: "no user id", token: anonymous, want: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
