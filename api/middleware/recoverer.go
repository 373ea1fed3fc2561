package middleware

import (
	"fmt"
	"net/http"

	"github.com/pyankovzhe/market-backend/api/responses"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

// Recoverer converts panics into INTERNAL_ERROR responses instead of
// tearing down the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("panic: %v", rec), "request handler panicked")
					responses.WriteError(r.Context(), logg, w, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
