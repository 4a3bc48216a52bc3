package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/sundialhq/sundial/pkg/jwtx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

// Transport selects how tokens travel between client and server. It is
// decided once at startup; a running instance never mixes modes.
type Transport string

const (
	// TransportCookie delivers tokens as HttpOnly cookies and requires the
	// CSRF guard on unsafe verbs.
	TransportCookie Transport = "cookie"
	// TransportBearer returns tokens in JSON bodies; clients resend the
	// access token in the Authorization header. No ambient-cookie auth
	// exists, so no CSRF guard is mounted.
	TransportBearer Transport = "bearer"
)

// Cookie and header names shared between the auth gate and the handlers
// that set cookies.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookieCSRFToken    = "csrfToken"
	HeaderCSRFToken    = "x-csrf-token"
)

// RequireAuth verifies the access token from the configured transport and
// injects the subject into the request context. Every verification failure
// produces the same 401 body so callers cannot probe why a token was
// rejected.
func RequireAuth(codec *jwtx.Codec, transport Transport) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := extractAccessToken(r, transport)
			if raw == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := codec.Verify(raw, jwtx.TokenAccess)
			if err != nil {
				slogx.FromContext(ctx).Warn("access token rejected", "err", err)
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth performs the same extraction and verification as RequireAuth
// but lets the request through with an absent identity on any failure. Used
// by endpoints that behave differently for anonymous callers without
// blocking them.
func OptionalAuth(codec *jwtx.Codec, transport Transport) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractAccessToken(r, transport)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := codec.Verify(raw, jwtx.TokenAccess)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxKeyUserID, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAccessToken(r *http.Request, transport Transport) string {
	switch transport {
	case TransportCookie:
		c, err := r.Cookie(CookieAccessToken)
		if err != nil {
			return ""
		}
		return c.Value
	default:
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
}
