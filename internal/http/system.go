package http

import (
	"net/http"

	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/httpx"
)

// HealthHandler reports liveness plus a database ping, so load balancers
// stop routing to an instance that lost its store.
type HealthHandler struct {
	Store store.Store
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)

	if err := h.Store.Ping(r.Context()); err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "Database unreachable")
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}
