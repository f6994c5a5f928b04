package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CORSConfig configures allowed origins/methods/headers.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAgeSeconds    int
}

// CORSMiddleware handles Cross-Origin Resource Sharing.
type CORSMiddleware struct {
	cfg      CORSConfig
	allowAll bool
}

// NewCORSMiddleware builds a CORSMiddleware, applying sensible defaults for
// zero fields on cfg.
func NewCORSMiddleware(cfg *CORSConfig) *CORSMiddleware {
	c := CORSConfig{}
	if cfg != nil {
		c = *cfg
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Trace-ID"}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"X-Trace-ID"}
	}
	if c.MaxAgeSeconds == 0 {
		c.MaxAgeSeconds = 3600
	}

	allowAll := false
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	return &CORSMiddleware{cfg: c, allowAll: allowAll}
}

// Handler returns the CORS-handling middleware.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (m.allowAll || m.isAllowed(origin)) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.cfg.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(m.cfg.AllowedHeaders, ", "))
			w.Header().Set("Access-Control-Expose-Headers", strings.Join(m.cfg.ExposedHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(m.cfg.MaxAgeSeconds))
			if m.cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) isAllowed(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "" {
		return false
	}
	for _, allowed := range m.cfg.AllowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if allowed == origin {
			return true
		}
		if strings.HasPrefix(allowed, ".") && strings.HasSuffix(host, strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}
