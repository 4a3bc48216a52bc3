package http

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sundialhq/sundial/pkg/httpx"
)

func TestBearerAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportBearer)
	client := srv.Client()

	session := registerUser(t, srv, "Alice", "alice@example.com")
	require.Equal(t, "alice@example.com", session.User.Email)
	require.Equal(t, "Alice", session.User.Name)
	require.Nil(t, session.User.InvitedBy)

	t.Run("me requires a token", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Unauthorized", env.Error.Message)
	})

	t.Run("me returns the account", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil,
			bearerHeader(session.Tokens.AccessToken))
		require.Equal(t, http.StatusOK, status)

		var data struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		decodeData(t, env, &data)
		require.Equal(t, "alice@example.com", data.User.Email)
	})

	var rotated sessionView
	t.Run("refresh rotates the pair", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh",
			map[string]string{"refreshToken": session.Tokens.RefreshToken}, nil)
		require.Equal(t, http.StatusOK, status)

		decodeData(t, env, &rotated)
		require.NotNil(t, rotated.Tokens)
		require.NotEqual(t, session.Tokens.RefreshToken, rotated.Tokens.RefreshToken)
		require.Equal(t, session.User.ID, rotated.User.ID)
	})

	t.Run("replaying the consumed refresh token fails", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh",
			map[string]string{"refreshToken": session.Tokens.RefreshToken}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid refresh token", env.Error.Message)
	})

	t.Run("old access token stays valid until it expires", func(t *testing.T) {
		status, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil,
			bearerHeader(session.Tokens.AccessToken))
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("refresh without a token", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh",
			map[string]string{}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Missing refresh token", env.Error.Message)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/logout",
			map[string]string{"refreshToken": rotated.Tokens.RefreshToken}, nil)
		require.Equal(t, http.StatusOK, status)

		var data map[string]string
		decodeData(t, env, &data)
		require.Equal(t, "Logged out", data["message"])

		status, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh",
			map[string]string{"refreshToken": rotated.Tokens.RefreshToken}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRegisterAndLoginErrors(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportBearer)
	client := srv.Client()

	registerUser(t, srv, "Alice", "alice@example.com")

	t.Run("validation failures report fields", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register",
			map[string]string{"name": "", "email": "not-an-email", "password": "short"}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Validation failed", env.Error.Message)
		require.Contains(t, env.Error.Details, "name")
		require.Contains(t, env.Error.Details, "email")
		require.Contains(t, env.Error.Details, "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register",
			map[string]string{"name": "Imposter", "email": "ALICE@example.com", "password": "password123"}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Email already in use", env.Error.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/login",
			map[string]string{"email": "alice@example.com", "password": "wrong"}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid credentials", env.Error.Message)
	})

	t.Run("unknown account gets the same error", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/login",
			map[string]string{"email": "ghost@example.com", "password": "password123"}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid credentials", env.Error.Message)
	})
}

func TestCookieAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportCookie)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}
	srvURL, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cookieByName := func(name string) *http.Cookie {
		for _, c := range jar.Cookies(srvURL) {
			if c.Name == name {
				return c
			}
		}
		return nil
	}

	t.Run("register sets the session cookies and omits tokens", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register",
			map[string]string{"name": "Alice", "email": "alice@example.com", "password": "password123"}, nil)
		require.Equal(t, http.StatusCreated, status)

		var session sessionView
		decodeData(t, env, &session)
		require.Nil(t, session.Tokens)

		require.NotNil(t, cookieByName(httpx.CookieAccessToken))
		require.NotNil(t, cookieByName(httpx.CookieRefreshToken))
		require.NotNil(t, cookieByName(httpx.CookieCSRFToken))
	})

	t.Run("me authenticates from the cookie", func(t *testing.T) {
		status, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil, nil)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("unsafe requests need the csrf header", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh", nil, nil)
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, "Invalid CSRF token", env.Error.Message)
	})

	t.Run("a wrong csrf header is rejected", func(t *testing.T) {
		h := http.Header{}
		h.Set(httpx.HeaderCSRFToken, "not-the-cookie-value")
		status, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh", nil, h)
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("refresh works with the echoed csrf token", func(t *testing.T) {
		before := cookieByName(httpx.CookieRefreshToken).Value

		h := http.Header{}
		h.Set(httpx.HeaderCSRFToken, cookieByName(httpx.CookieCSRFToken).Value)
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/refresh", nil, h)
		require.Equal(t, http.StatusOK, status)

		var session sessionView
		decodeData(t, env, &session)
		require.Nil(t, session.Tokens)

		require.NotEqual(t, before, cookieByName(httpx.CookieRefreshToken).Value)
	})

	t.Run("csrf endpoint reuses the live cookie", func(t *testing.T) {
		current := cookieByName(httpx.CookieCSRFToken).Value

		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/csrf", nil, nil)
		require.Equal(t, http.StatusOK, status)

		var data map[string]string
		decodeData(t, env, &data)
		require.Equal(t, current, data["csrfToken"])
	})

	t.Run("logout clears the cookies", func(t *testing.T) {
		h := http.Header{}
		h.Set(httpx.HeaderCSRFToken, cookieByName(httpx.CookieCSRFToken).Value)
		status, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/logout", nil, h)
		require.Equal(t, http.StatusOK, status)

		require.Nil(t, cookieByName(httpx.CookieAccessToken))
		require.Nil(t, cookieByName(httpx.CookieRefreshToken))

		status, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("csrf bootstrap works without a session", func(t *testing.T) {
		freshJar, err := cookiejar.New(nil)
		require.NoError(t, err)
		fresh := &http.Client{Jar: freshJar}

		status, env := doJSON(t, fresh, http.MethodGet, srv.URL+"/api/auth/csrf", nil, nil)
		require.Equal(t, http.StatusOK, status)

		var data map[string]string
		decodeData(t, env, &data)
		require.NotEmpty(t, data["csrfToken"])
	})
}
