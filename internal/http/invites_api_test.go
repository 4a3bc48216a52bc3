package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sundialhq/sundial/pkg/httpx"
)

type inviteCreateView struct {
	InviteLink  string `json:"inviteLink"`
	EmailResult struct {
		Sent   bool   `json:"sent"`
		Reason string `json:"reason"`
	} `json:"emailResult"`
}

// tokenFromLink pulls the raw invite token back out of the accept link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	_, token, found := strings.Cut(link, "token=")
	require.True(t, found, "invite link carries no token: %s", link)
	return token
}

func TestInvitesAPI(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportBearer)
	client := srv.Client()

	inviter := registerUser(t, srv, "Alice", "alice@example.com")
	auth := bearerHeader(inviter.Tokens.AccessToken)

	t.Run("creating an invite requires authentication", func(t *testing.T) {
		status, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("open invite reports no email was sent", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{}, auth)
		require.Equal(t, http.StatusCreated, status)

		var data inviteCreateView
		decodeData(t, env, &data)
		require.Contains(t, data.InviteLink, "/accept-invite?token=")
		require.False(t, data.EmailResult.Sent)
		require.Equal(t, "no_email_provided", data.EmailResult.Reason)
	})

	t.Run("targeted invite without smtp degrades gracefully", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{"email": "friend@example.com"}, auth)
		require.Equal(t, http.StatusCreated, status)

		var data inviteCreateView
		decodeData(t, env, &data)
		require.False(t, data.EmailResult.Sent)
		require.Equal(t, "smtp_not_configured", data.EmailResult.Reason)
	})

	t.Run("anonymous accept creates a bound account with a session", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{}, auth)
		require.Equal(t, http.StatusCreated, status)
		var invite inviteCreateView
		decodeData(t, env, &invite)
		token := tokenFromLink(t, invite.InviteLink)

		status, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
			map[string]string{
				"token":    token,
				"name":     "Bob",
				"password": "password123",
				"email":    "bob@example.com",
			}, nil)
		require.Equal(t, http.StatusCreated, status)

		var session sessionView
		decodeData(t, env, &session)
		require.NotNil(t, session.Tokens)
		require.Equal(t, "bob@example.com", session.User.Email)
		require.NotNil(t, session.User.InvitedBy)
		require.Equal(t, inviter.User.ID, *session.User.InvitedBy)

		// The fresh session works, and the new calendar is pre-seeded.
		status, env = doJSON(t, client, http.MethodGet, srv.URL+"/api/events", nil,
			bearerHeader(session.Tokens.AccessToken))
		require.Equal(t, http.StatusOK, status)
		var page eventPageView
		decodeData(t, env, &page)
		require.Equal(t, 3, page.Pagination.Total)

		t.Run("the invitation is spent", func(t *testing.T) {
			status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
				map[string]string{
					"token":    token,
					"name":     "Eve",
					"password": "password123",
					"email":    "eve@example.com",
				}, nil)
			require.Equal(t, http.StatusBadRequest, status)
			require.Equal(t, "Invalid or expired invitation token", env.Error.Message)
		})
	})

	t.Run("anonymous accept needs name and password", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{}, auth)
		require.Equal(t, http.StatusCreated, status)
		var invite inviteCreateView
		decodeData(t, env, &invite)

		status, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
			map[string]string{"token": tokenFromLink(t, invite.InviteLink)}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "name and password are required for new account acceptance", env.Error.Message)
	})

	t.Run("accept with a taken email points at login", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{}, auth)
		require.Equal(t, http.StatusCreated, status)
		var invite inviteCreateView
		decodeData(t, env, &invite)

		status, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
			map[string]string{
				"token":    tokenFromLink(t, invite.InviteLink),
				"name":     "Imposter",
				"password": "password123",
				"email":    "alice@example.com",
			}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "User with this email already exists, please login and accept invite", env.Error.Message)
	})

	t.Run("authenticated accept merges into the account", func(t *testing.T) {
		carol := registerUser(t, srv, "Carol", "carol@example.com")

		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/create",
			map[string]string{}, auth)
		require.Equal(t, http.StatusCreated, status)
		var invite inviteCreateView
		decodeData(t, env, &invite)

		status, env = doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
			map[string]string{"token": tokenFromLink(t, invite.InviteLink)},
			bearerHeader(carol.Tokens.AccessToken))
		require.Equal(t, http.StatusOK, status)

		var data map[string]string
		decodeData(t, env, &data)
		require.Equal(t, "Invitation accepted for current account", data["message"])

		status, env = doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil,
			bearerHeader(carol.Tokens.AccessToken))
		require.Equal(t, http.StatusOK, status)
		var me struct {
			User struct {
				InvitedBy *string `json:"invitedBy"`
			} `json:"user"`
		}
		decodeData(t, env, &me)
		require.NotNil(t, me.User.InvitedBy)
		require.Equal(t, inviter.User.ID, *me.User.InvitedBy)
	})

	t.Run("missing token", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
			map[string]string{"name": "Nobody", "password": "password123"}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Invalid or expired invitation token", env.Error.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/invites/accept",
			map[string]string{"token": "bogus", "name": "Nobody", "password": "password123"}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Invalid or expired invitation token", env.Error.Message)
	})
}
