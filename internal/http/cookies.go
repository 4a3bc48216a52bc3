package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/pkg/httpx"
)

// CookieWriter sets and clears the auth cookies in cookie transport mode.
// Access and refresh tokens are HttpOnly; the CSRF token deliberately is
// not, so the frontend can read it and echo it back in the header.
type CookieWriter struct {
	secure     bool
	sameSite   http.SameSite
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieWriter builds the cookie policy for the deployment. Cross-site
// frontends need SameSite=None (which requires Secure); local development
// runs Lax over plain http.
func NewCookieWriter(secure bool, accessTTL, refreshTTL time.Duration) *CookieWriter {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	return &CookieWriter{
		secure:     secure,
		sameSite:   sameSite,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// WriteSession sets the three session cookies for a fresh token pair and
// returns the CSRF token it minted.
func (c *CookieWriter) WriteSession(w http.ResponseWriter, pair domain.TokenPair) string {
	csrf := newCSRFToken()

	c.set(w, httpx.CookieAccessToken, pair.AccessToken, c.accessTTL, true)
	c.set(w, httpx.CookieRefreshToken, pair.RefreshToken, c.refreshTTL, true)
	c.set(w, httpx.CookieCSRFToken, csrf, c.refreshTTL, false)

	return csrf
}

// WriteCSRF sets only the CSRF cookie, for the bootstrap endpoint.
func (c *CookieWriter) WriteCSRF(w http.ResponseWriter) string {
	csrf := newCSRFToken()
	c.set(w, httpx.CookieCSRFToken, csrf, c.refreshTTL, false)
	return csrf
}

// Clear expires all session cookies.
func (c *CookieWriter) Clear(w http.ResponseWriter) {
	c.set(w, httpx.CookieAccessToken, "", -time.Second, true)
	c.set(w, httpx.CookieRefreshToken, "", -time.Second, true)
	c.set(w, httpx.CookieCSRFToken, "", -time.Second, false)
}

func (c *CookieWriter) set(w http.ResponseWriter, name, value string, ttl time.Duration, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

// newCSRFToken returns 24 random bytes hex-encoded. The value only needs to
// be unguessable, not verifiable: the guard compares cookie and header.
func newCSRFToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic("csrf token entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
