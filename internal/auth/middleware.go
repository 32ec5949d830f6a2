package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
)

// contextKey is an unexported type used for context keys in this package, so
// no other package can read or shadow the session value.
type contextKey string

const sessionKey contextKey = "session"

// CookieName holds the token in the browser; the front-end copies it into
// the Authorization header of its API calls.
const CookieName = "8bn-team"

// RequireSession enforces a valid token on API routes.
//
// The token travels verbatim in the Authorization header (no "Bearer "
// prefix). Missing header → 403 {"status":"authorization missing"};
// unknown token → 403 {"status":"session expired"}; a storage failure →
// 500 {"status":"internal error"}.
func RequireSession(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			logger.Debug("authenticating request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			session, err := tokens.Validate(r.Context(), auth)
			if err != nil {
				status, message := http.StatusInternalServerError, "internal error"
				var appErr *apperror.AppError
				if errors.Is(err, apperror.ErrUnauthorized) && errors.As(err, &appErr) {
					status, message = http.StatusForbidden, appErr.Message
				} else {
					logger.Error("token validation failed", slog.String("error", err.Error()))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]string{"status": message})
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session RequireSession stored.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok && s != nil
}

// WithSession returns a copy of ctx carrying s. Handlers' tests use it to
// skip the middleware.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
