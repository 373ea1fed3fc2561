package middleware

import (
	"context"

	"github.com/pyankovzhe/market-backend/pkg/auth"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
)

type ctxKey string

const (
	ctxKeyPrincipal ctxKey = "principal"
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyAccessID  ctxKey = "access_id"
)

func withPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, principal)
}

// PrincipalFromContext returns the authenticated actor set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (auth.Principal, error) {
	principal, ok := ctx.Value(ctxKeyPrincipal).(auth.Principal)
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return principal, nil
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxKeyAccessID, accessID)
}

// AccessIDFromContext returns the token identifier (jti) for the current session.
func AccessIDFromContext(ctx context.Context) (string, error) {
	accessID, ok := ctx.Value(ctxKeyAccessID).(string)
	if !ok || accessID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return accessID, nil
}

func withRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext returns the request correlation id, empty when unset.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(ctxKeyRequestID).(string)
	return requestID
}
