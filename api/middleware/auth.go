package middleware

import (
	"net/http"
	"strings"

	"github.com/pyankovzhe/market-backend/api/responses"
	"github.com/pyankovzhe/market-backend/pkg/auth"
	"github.com/pyankovzhe/market-backend/pkg/auth/session"
	"github.com/pyankovzhe/market-backend/pkg/config"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

const bearerPrefix = "Bearer "

// Authenticate validates the bearer token, checks the session is still
// live, and stores the resulting Principal in the request context.
func Authenticate(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, bearerPrefix) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			claims, err := auth.ParseAccessToken(cfg, tokenString)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			live, err := sessions.HasSession(r.Context(), claims.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup failed"))
				return
			}
			if !live {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired"))
				return
			}

			principal := auth.Principal{
				ID:   claims.UserID,
				Role: claims.Role,
			}

			ctx := withPrincipal(r.Context(), principal)
			ctx = withAccessID(ctx, claims.ID)
			ctx = logg.WithUserID(ctx, principal.ID.String())
			ctx = logg.WithActorRole(ctx, principal.Role.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
