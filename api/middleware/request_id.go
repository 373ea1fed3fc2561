package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pyankovzhe/market-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns a correlation id to every request and echoes it back.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := withRequestID(r.Context(), requestID)
			ctx = logg.WithRequestID(ctx, requestID)
			w.Header().Set(requestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
