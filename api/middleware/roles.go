package middleware

import (
	"context"
	"net/http"

	"github.com/uchsash/medistore/internal/catalog"
	"github.com/uchsash/medistore/internal/roles"
	"github.com/uchsash/medistore/pkg/logger"
)

const roleHeader = "X-User-Role"

// SessionResolver looks up the caller's session upstream.
type SessionResolver interface {
	Session(ctx context.Context) (*catalog.Session, error)
}

// Role resolves the caller's role and forwards the caller's cookies to
// upstream calls. An explicit X-User-Role header wins; otherwise the upstream
// session is asked. Callers without a session browse as customers.
func Role(sessions SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := catalog.WithCookie(r.Context(), r.Header.Get("Cookie"))

			role := roles.Customer
			if raw := r.Header.Get(roleHeader); raw != "" {
				role = roles.Normalize(raw)
			} else if sessions != nil && r.Header.Get("Cookie") != "" {
				sess, err := sessions.Session(ctx)
				switch {
				case err != nil:
					if logg != nil {
						logg.Debug(logg.WithField(ctx, "error", err.Error()), "session.lookup_failed")
					}
				case sess != nil:
					role = sess.User.Role
				}
			}

			ctx = WithRole(ctx, role)
			if logg != nil {
				ctx = logg.WithRole(ctx, string(role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
