package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/productcatalog/pkg/web"
)

const bearerPrefix = "Bearer "

// Middleware rejects requests without a valid bearer token and stores the token subject in the context.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				web.RespondError(w, logger, http.StatusUnauthorized, "Unauthorized: missing bearer token")
				return
			}
			token, err := v.Verify(r.Context(), strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				logger.WarnContext(r.Context(), "Token verification failed", "error", err)
				web.RespondError(w, logger, http.StatusUnauthorized, "Unauthorized: invalid token")
				return
			}
			ctx := r.Context()
			if sub, ok := token.Subject(); ok {
				ctx = web.WithSubject(ctx, sub)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
