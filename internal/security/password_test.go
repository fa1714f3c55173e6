package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := &Hasher{Cost: bcrypt.MinCost}

	hash, err := h.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, h.ComparePasswords(hash, "secret123"))
	assert.False(t, h.ComparePasswords(hash, "secret124"))
	assert.False(t, h.ComparePasswords("", "secret123"))
	assert.False(t, h.ComparePasswords("not-a-hash", "secret123"))
}

func TestNewHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher().Cost)
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("abc"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword("abcde"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("abcdef"))
	// six characters, more than six bytes
	assert.NoError(t, ValidatePassword("pässwö"))
	assert.ErrorIs(t, ValidatePassword("ääääa"), ErrPasswordTooShort)
}
