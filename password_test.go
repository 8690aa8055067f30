package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-gate"
)

func TestPlaintextComparer(t *testing.T) {
	c := auth.PlaintextComparer{}

	assert.NoError(t, c.Compare("secret", "secret"))
	assert.ErrorIs(t, c.Compare("secret", "Secret"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, c.Compare("", "secret"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, c.Compare("secret", ""), auth.ErrInvalidCredentials)
}

func TestBcryptComparer(t *testing.T) {
	c := auth.BcryptComparer{}

	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, c.Compare("secret", hash))
	})

	t.Run("mismatch", func(t *testing.T) {
		assert.ErrorIs(t, c.Compare("other", hash), auth.ErrInvalidCredentials)
	})

	t.Run("stored value is not a hash", func(t *testing.T) {
		assert.ErrorIs(t, c.Compare("secret", "secret"), auth.ErrInvalidCredentials)
	})
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
}

func TestNewSecretComparer(t *testing.T) {
	cases := []struct {
		scheme string
		want   auth.SecretComparer
	}{
		{"", auth.PlaintextComparer{}},
		{"plaintext", auth.PlaintextComparer{}},
		{"BCRYPT", auth.BcryptComparer{}},
		{" bcrypt ", auth.BcryptComparer{}},
	}

	for _, tc := range cases {
		t.Run(tc.scheme, func(t *testing.T) {
			got, err := auth.NewSecretComparer(tc.scheme)
			require.NoError(t, err)
			assert.IsType(t, tc.want, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := auth.NewSecretComparer("md5")
		assert.ErrorIs(t, err, auth.ErrUnknownPasswordScheme)
	})
}

func TestSecretComparerFunc(t *testing.T) {
	called := false
	c := auth.SecretComparerFunc(func(presented, stored string) error {
		called = true
		return nil
	})

	assert.NoError(t, c.Compare("a", "b"))
	assert.True(t, called)
}
