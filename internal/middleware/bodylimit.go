package middleware

import (
	"net/http"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/httputil"
)

const defaultMaxRequestBodyBytes int64 = 16 << 20 // 16MiB, above the 10MiB file cap plus JSON envelope overhead

// BodyLimitMiddleware caps request bodies to bound memory/CPU use against
// hostile payload sizes.
type BodyLimitMiddleware struct {
	maxBytes int64
}

// NewBodyLimitMiddleware builds a BodyLimitMiddleware; maxBytes<=0 applies
// the default.
func NewBodyLimitMiddleware(maxBytes int64) *BodyLimitMiddleware {
	if maxBytes <= 0 {
		maxBytes = defaultMaxRequestBodyBytes
	}
	return &BodyLimitMiddleware{maxBytes: maxBytes}
}

// Handler wraps next, rejecting oversized bodies before they are read.
func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.maxBytes {
			httputil.WriteError(w, errors.TooLarge("request body too large"))
			return
		}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}
