package api

import (
	"net/http"
	"strings"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/httputil"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/service"
)

// authMiddleware extracts the bearer token, validates it via C2, and
// attaches the resolved username to the request context. On failure it
// returns 401 without distinguishing malformed/bad-signature/expired
// beyond the coarse Unauthorized kind (§4.10).
func authMiddleware(c *service.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				httputil.WriteError(w, errors.Unauthorized("missing bearer token"))
				return
			}
			raw := strings.TrimPrefix(header, prefix)

			username, err := c.Tokens.Validate(raw)
			if err != nil {
				httputil.WriteError(w, errors.Unauthorized("invalid or expired token"))
				return
			}

			ctx := logging.ContextWithUserID(r.Context(), username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
