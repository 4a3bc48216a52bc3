package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sundialhq/sundial/pkg/httpx"
)

type eventView struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	StartAt  time.Time `json:"startAt"`
	EndAt    time.Time `json:"endAt"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	Tags     []string  `json:"tags"`
}

type eventPageView struct {
	Items      []eventView `json:"items"`
	Pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

func TestEventsAPI(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportBearer)
	client := srv.Client()

	session := registerUser(t, srv, "Alice", "alice@example.com")
	auth := bearerHeader(session.Tokens.AccessToken)

	t.Run("requires authentication", func(t *testing.T) {
		status, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/events", nil, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("a new account starts with the sample events", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/events", nil, auth)
		require.Equal(t, http.StatusOK, status)

		var page eventPageView
		decodeData(t, env, &page)
		require.Equal(t, 3, page.Pagination.Total)
		require.Equal(t, 1, page.Pagination.Page)
	})

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	var created eventView

	t.Run("create", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/events", map[string]any{
			"title":    "Board Meeting",
			"startAt":  start,
			"endAt":    start.Add(time.Hour),
			"location": "HQ",
			"tags":     []string{"board", "quarterly"},
		}, auth)
		require.Equal(t, http.StatusCreated, status)

		var data struct {
			Event eventView `json:"event"`
		}
		decodeData(t, env, &data)
		created = data.Event
		require.NotEmpty(t, created.ID)
		require.Equal(t, "Board Meeting", created.Title)
		require.Equal(t, "upcoming", created.Status)
		require.Equal(t, []string{"board", "quarterly"}, created.Tags)
	})

	t.Run("create rejects an inverted window", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPost, srv.URL+"/api/events", map[string]any{
			"title":   "Backwards",
			"startAt": start,
			"endAt":   start.Add(-time.Hour),
		}, auth)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "Validation failed", env.Error.Message)
		require.Equal(t, "endAt must be after startAt", env.Error.Details["endAt"])
	})

	t.Run("get", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/events/"+created.ID, nil, auth)
		require.Equal(t, http.StatusOK, status)

		var data struct {
			Event eventView `json:"event"`
		}
		decodeData(t, env, &data)
		require.Equal(t, created.ID, data.Event.ID)
	})

	t.Run("get unknown id", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/events/does-not-exist", nil, auth)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "Event not found", env.Error.Message)
	})

	t.Run("update", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodPut, srv.URL+"/api/events/"+created.ID, map[string]any{
			"title":  "Board Meeting (Rescheduled)",
			"status": "attending",
		}, auth)
		require.Equal(t, http.StatusOK, status)

		var data struct {
			Event eventView `json:"event"`
		}
		decodeData(t, env, &data)
		require.Equal(t, "Board Meeting (Rescheduled)", data.Event.Title)
		require.Equal(t, "attending", data.Event.Status)
		// Fields absent from the request are untouched.
		require.Equal(t, "HQ", data.Event.Location)
	})

	t.Run("list filters by query", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet,
			srv.URL+"/api/events?query=Board", nil, auth)
		require.Equal(t, http.StatusOK, status)

		var page eventPageView
		decodeData(t, env, &page)
		require.Equal(t, 1, page.Pagination.Total)
		require.Equal(t, created.ID, page.Items[0].ID)
	})

	t.Run("list filters by tags", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet,
			srv.URL+"/api/events?tags=board,quarterly", nil, auth)
		require.Equal(t, http.StatusOK, status)

		var page eventPageView
		decodeData(t, env, &page)
		require.Equal(t, 1, page.Pagination.Total)
	})

	t.Run("pagination and sort parameters", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet,
			srv.URL+"/api/events?limit=2&page=2&sort=title:desc", nil, auth)
		require.Equal(t, http.StatusOK, status)

		var page eventPageView
		decodeData(t, env, &page)
		require.Equal(t, 2, page.Pagination.Page)
		require.Equal(t, 2, page.Pagination.Limit)
		require.Equal(t, 4, page.Pagination.Total)
		require.Equal(t, 2, page.Pagination.TotalPages)
		require.Len(t, page.Items, 2)
	})

	t.Run("delete", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodDelete, srv.URL+"/api/events/"+created.ID, nil, auth)
		require.Equal(t, http.StatusOK, status)

		var data map[string]bool
		decodeData(t, env, &data)
		require.True(t, data["deleted"])

		status, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/events/"+created.ID, nil, auth)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("events are scoped per account", func(t *testing.T) {
		other := registerUser(t, srv, "Bob", "bob@example.com")

		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/events", nil,
			bearerHeader(other.Tokens.AccessToken))
		require.Equal(t, http.StatusOK, status)

		var page eventPageView
		decodeData(t, env, &page)
		// Bob only sees his own starter events, none of Alice's.
		require.Equal(t, 3, page.Pagination.Total)
		for _, item := range page.Items {
			require.NotEqual(t, "Board Meeting (Rescheduled)", item.Title)
		}
	})
}

func TestEventListPaging(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportBearer)
	client := srv.Client()

	session := registerUser(t, srv, "Carol", "carol@example.com")
	auth := bearerHeader(session.Tokens.AccessToken)

	base := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 9; i++ {
		start := base.AddDate(0, 0, i)
		status, _ := doJSON(t, client, http.MethodPost, srv.URL+"/api/events", map[string]any{
			"title":   fmt.Sprintf("Event %02d", i),
			"startAt": start,
			"endAt":   start.Add(time.Hour),
		}, auth)
		require.Equal(t, http.StatusCreated, status)
	}

	// 9 created plus 3 starter events seeded at registration.
	status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/events?limit=5", nil, auth)
	require.Equal(t, http.StatusOK, status)

	var page eventPageView
	decodeData(t, env, &page)
	require.Equal(t, 12, page.Pagination.Total)
	require.Equal(t, 3, page.Pagination.TotalPages)
	require.Len(t, page.Items, 5)

	status, env = doJSON(t, client, http.MethodGet, srv.URL+"/api/events?limit=5&page=3", nil, auth)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &page)
	require.Len(t, page.Items, 2)
}
