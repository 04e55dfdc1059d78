package hasher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/propertyhub/rental-api/internal/core/domain"
)

func TestBcrypt_HashAndVerify(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("Aa1!aaaa")
	require.NoError(t, err)
	assert.NotEqual(t, "Aa1!aaaa", hash)

	assert.True(t, h.Verify(hash, "Aa1!aaaa"))
	assert.False(t, h.Verify(hash, "Aa1!aaab"))
	assert.False(t, h.Verify(hash, ""))
}

func TestBcrypt_EmptyHashNeverMatches(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	assert.False(t, h.Verify("", ""))
	assert.False(t, h.Verify("", "anything"))
}

func TestNewBcrypt_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).cost)
	assert.Equal(t, 12, NewBcrypt(12).cost)
}

func TestBcrypt_TooLongIsValidationError(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	_, err := h.Hash("Aa1!" + strings.Repeat("a", 76))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
