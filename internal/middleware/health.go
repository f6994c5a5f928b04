package middleware

import (
	"encoding/json"
	"net/http"
)

// HealthHandler answers GET /health with {"status":"ok"}, unauthenticated.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
