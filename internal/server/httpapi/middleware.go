package httpapi

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/server/auth"
)

// requireAPIKey rejects requests whose x-api-key header does not match the
// configured shared key.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(common.APIKeyHeaderName)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.apiKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, gqlResponse{Errors: []gqlError{{Message: "invalid api key"}}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestLog tags each request with a correlation id and logs it on
// completion.
func (h *Handler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		correlationID := common.CorrelationID()

		next.ServeHTTP(w, r)

		h.logger.Info(r.Context(), "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"correlation_id", correlationID,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// bearerUserID validates the Authorization Bearer token and returns the
// authenticated user id.
func (h *Handler) bearerUserID(r *http.Request) (string, error) {
	header := r.Header.Get(common.AuthHeaderName)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("missing bearer token: %w", common.ErrorUnauthorized)
	}
	return auth.GetUserIDFromToken(token, h.jwtSecret)
}
