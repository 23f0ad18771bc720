package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "podium/pkg/domain-errors"
)

func TestToken(t *testing.T) {
	a, err := Token()
	require.NoError(t, err)
	b, err := Token()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ngPass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotContains(t, hash, "Str0ngPass")

	assert.NoError(t, VerifyPassword("Str0ngPass", hash))
	assert.True(t, dErrors.HasCode(VerifyPassword("wrong", hash), dErrors.CodeUnauthorized))
}

func TestHashPasswordRejects(t *testing.T) {
	_, err := HashPassword("", bcrypt.MinCost)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
