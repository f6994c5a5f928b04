package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/service"
	"github.com/sys3222/akshare-mcp-adapter/internal/tokens"
)

func containerWithIssuer(issuer *tokens.Issuer) *service.Container {
	return &service.Container{Tokens: issuer}
}

func TestAuthMiddlewareRejectsMissingBearerHeader(t *testing.T) {
	c := containerWithIssuer(tokens.NewIssuer([]byte("0123456789012345678901234567890123"), time.Hour))
	mw := authMiddleware(c)

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsMalformedToken(t *testing.T) {
	c := containerWithIssuer(tokens.NewIssuer([]byte("0123456789012345678901234567890123"), time.Hour))
	mw := authMiddleware(c)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareAttachesUsernameOnSuccess(t *testing.T) {
	issuer := tokens.NewIssuer([]byte("0123456789012345678901234567890123"), time.Hour)
	token, _, err := issuer.Issue("trader1")
	require.NoError(t, err)

	c := containerWithIssuer(issuer)
	mw := authMiddleware(c)

	var resolved string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = logging.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trader1", resolved)
}
