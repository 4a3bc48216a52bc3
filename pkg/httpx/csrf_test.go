package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func csrfHandler(t *testing.T, exempt ...string) http.Handler {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Chain(ok, CSRFGuard(exempt...))
}

func doCSRF(h http.Handler, method, path, cookie, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieCSRFToken, Value: cookie})
	}
	if header != "" {
		req.Header.Set(HeaderCSRFToken, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCSRFGuard(t *testing.T) {
	t.Parallel()
	h := csrfHandler(t, "/api/auth/login")

	t.Run("matching cookie and header passes", func(t *testing.T) {
		rec := doCSRF(h, http.MethodPost, "/api/events", "tok-1", "tok-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("mismatched tokens fail with 403", func(t *testing.T) {
		rec := doCSRF(h, http.MethodPost, "/api/events", "tok-1", "tok-2")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing header fails", func(t *testing.T) {
		rec := doCSRF(h, http.MethodPost, "/api/events", "tok-1", "")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing cookie fails", func(t *testing.T) {
		rec := doCSRF(h, http.MethodPost, "/api/events", "", "tok-1")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("GET never requires the header", func(t *testing.T) {
		rec := doCSRF(h, http.MethodGet, "/api/events", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("every unsafe verb is guarded", func(t *testing.T) {
		for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			rec := doCSRF(h, m, "/api/events", "", "")
			require.Equal(t, http.StatusForbidden, rec.Code, m)
		}
	})

	t.Run("exempt path skips the check", func(t *testing.T) {
		rec := doCSRF(h, http.MethodPost, "/api/auth/login", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
