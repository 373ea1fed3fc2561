package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/pyankovzhe/market-backend/api/responses"
)

type pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// Health reports whether the datastore and session store are reachable.
func Health(database, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}
		healthy := true

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				status["database"] = "unreachable"
				healthy = false
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				status["redis"] = "unreachable"
				healthy = false
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, status)
	}
}
