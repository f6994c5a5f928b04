package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

func testSecret() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	iss := NewIssuer(testSecret(), time.Hour)
	raw, expiry, err := iss.Issue("alice")
	require.NoError(t, err)
	assert.True(t, expiry.After(time.Now()))

	sub, err := iss.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestValidateRejectsMalformedToken(t *testing.T) {
	iss := NewIssuer(testSecret(), time.Hour)
	_, err := iss.Validate("not-a-jwt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTokenMalformed))
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a := NewIssuer(testSecret(), time.Hour)
	b := NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	raw, _, err := a.Issue("bob")
	require.NoError(t, err)

	_, err = b.Validate(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTokenInvalidSignature))
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	iss := NewIssuer(testSecret(), -time.Minute)
	raw, _, err := iss.Issue("carol")
	require.NoError(t, err)

	_, err = iss.Validate(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTokenExpired))
}
