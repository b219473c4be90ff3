package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/harborline/storefront-sync/api/responses"
	pkgAuth "github.com/harborline/storefront-sync/pkg/auth"
	"github.com/harborline/storefront-sync/pkg/config"
	pkgerrors "github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
)

// Auth validates the bearer session token and seeds the shared credential
// source, making the verified credential available to the remote client and
// the realtime channel. A request without a valid token is refused before any
// handler runs.
func Auth(cfg config.AuthConfig, source *pkgAuth.Source, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if source != nil && claims.ExpiresAt != nil {
				source.Set(token, claims.ExpiresAt.Time)
			}

			ctx := context.WithValue(r.Context(), ctxSessionID, claims.SessionID.String())
			if logg != nil {
				ctx = logg.WithSessionID(ctx, claims.SessionID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
