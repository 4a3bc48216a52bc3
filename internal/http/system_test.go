package http

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sundialhq/sundial/pkg/httpx"
)

func TestHealthEndpoint(t *testing.T) {
	srv, st := newTestServer(t, httpx.TransportBearer)
	client := srv.Client()

	t.Run("healthy", func(t *testing.T) {
		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/health", nil, nil)
		require.Equal(t, http.StatusOK, status)

		var data map[string]string
		decodeData(t, env, &data)
		require.Equal(t, "ok", data["status"])
	})

	t.Run("database down", func(t *testing.T) {
		require.NoError(t, st.Close())

		status, env := doJSON(t, client, http.MethodGet, srv.URL+"/api/health", nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, status)
		require.Equal(t, "Database unreachable", env.Error.Message)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, httpx.TransportBearer)

	// Prime the counters so the scrape has something to show.
	warm, err := srv.Client().Get(srv.URL + "/api/health")
	require.NoError(t, err)
	_ = warm.Body.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "sundial_http_requests_total")
}
