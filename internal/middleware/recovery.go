package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/httputil"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
)

// RecoveryMiddleware recovers from handler panics, logs the stack, and
// returns a 500 Internal envelope instead of crashing the request context.
type RecoveryMiddleware struct {
	logger *logging.Logger
}

// NewRecoveryMiddleware creates a RecoveryMiddleware.
func NewRecoveryMiddleware(logger *logging.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger}
}

// Handler wraps next with panic recovery.
func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
					"panic":  fmt.Sprintf("%v", rec),
					"stack":  string(debug.Stack()),
					"path":   r.URL.Path,
					"method": r.Method,
				}).Error("panic recovered")

				httputil.WriteError(w, errors.Internal("internal server error", fmt.Errorf("%v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
