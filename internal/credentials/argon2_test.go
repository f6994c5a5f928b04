package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	encoded, err := hashPassword("correct-horse-battery-staple")
	require.NoError(t, err)

	ok, err := verifyPassword("correct-horse-battery-staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	encoded, err := hashPassword("correct-horse-battery-staple")
	require.NoError(t, err)

	ok, err := verifyPassword("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := hashPassword("same-password")
	require.NoError(t, err)
	b, err := hashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDummyHashIsValidlyEncoded(t *testing.T) {
	ok, err := verifyPassword("anything", dummyHash)
	require.NoError(t, err)
	assert.False(t, ok)
}
