package httpx

import (
	"crypto/subtle"
	"net/http"
)

var unsafeMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// CSRFGuard implements the double-submit check for cookie-transport
// deployments: state-changing verbs must echo the csrfToken cookie value in
// the x-csrf-token header. The token is co-issued with the auth cookies and
// readable by client script; its only job is to prove the request came from
// a context that can read same-site cookies.
//
// exempt lists paths that skip the check: login and register (no session
// yet) and the endpoint that hands the current token to a client that does
// not have one.
func CSRFGuard(exempt ...string) Middleware {
	skip := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, unsafe := unsafeMethods[r.Method]; !unsafe {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieCSRFToken)
			header := r.Header.Get(HeaderCSRFToken)
			if err != nil || cookie.Value == "" || header == "" ||
				subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
				WriteError(w, http.StatusForbidden, "Invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
