package httppresentation

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/courseshop/internal/application/auth"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"
)

const accessTokenCookie = "access_token"

// requireAuth authenticates every request and, when roles is non-empty, also
// requires the caller's role to be one of them for operation.
func (h *Handler) requireAuth(operation string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, err := h.gate.Authenticate(ctx, credentialFrom(r))
			if err != nil {
				h.reportError(w, r, err)
				return
			}
			if len(roles) > 0 {
				if err := h.gate.Authorize(ctx, operation, id, roles...); err != nil {
					h.reportError(w, r, err)
					return
				}
			}

			ctx = auth.WithIdentity(ctx, id)
			ctx = logctx.Enrich(ctx,
				observability.F("user_id", id.ID),
				observability.F("role", id.Role),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credentialFrom reads the access token cookie, falling back to a bearer
// Authorization header.
func credentialFrom(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	const prefix = "bearer "
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func identityFrom(ctx context.Context) (*session.Record, bool) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return &session.Record{}, false
	}
	return id, true
}
