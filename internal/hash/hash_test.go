package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_VerifiesOwnHash(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, h)
	require.NotEqual(t, "correct horse battery staple", h)

	assert.True(t, CheckPassword(h, "correct horse battery staple"))
}

func TestCheckPassword_RejectsWrongPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("password-one")
	require.NoError(t, err)

	assert.False(t, CheckPassword(h, "password-two"))
	assert.False(t, CheckPassword(h, ""))
}

func TestHashPassword_SaltsEachCall(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same password")
	require.NoError(t, err)
	h2, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_CostFloor(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, 12)
}
