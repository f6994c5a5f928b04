// Package httputil provides the JSON response envelope and outbound HTTP
// client factory shared by the request pipeline, the upstream invoker, and
// the LLM dispatcher.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
)

var defaultLogger = logging.NewFromEnv("httputil")

// ErrorBody is the user-visible error envelope: {"detail": "..."}.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		defaultLogger.WithError(err).Warn("write json response")
	}
}

// WriteError writes the {"detail": ...} envelope for err, picking the status
// from its ServiceError kind (defaulting to 500 for anything else, and
// never echoing internal error detail to the client).
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var svcErr *errors.ServiceError
	if se, ok := err.(*errors.ServiceError); ok {
		svcErr = se
	}
	if svcErr != nil {
		status = svcErr.HTTPStatus()
		message = svcErr.Message
	}
	WriteJSON(w, status, ErrorBody{Detail: message})
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
}

// NewClient builds an *http.Client with the given timeout. MaxBodyBytes is
// enforced by callers via http.MaxBytesReader / io.LimitReader on the
// response body, not by the client itself.
func NewClient(cfg ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
