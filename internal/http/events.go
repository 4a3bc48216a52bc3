package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/httpx"
)

type EventHandler struct {
	Events *service.EventService
}

// eventRequest mirrors service.EventInput in JSON form; pointer fields keep
// partial updates possible.
type eventRequest struct {
	Title       *string    `json:"title"`
	StartAt     *time.Time `json:"startAt"`
	EndAt       *time.Time `json:"endAt"`
	Location    *string    `json:"location"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Tags        []string   `json:"tags"`
}

func (req eventRequest) input() service.EventInput {
	return service.EventInput{
		Title:       req.Title,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Location:    req.Location,
		Description: req.Description,
		Status:      req.Status,
		Tags:        req.Tags,
	}
}

func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := httpx.UserIDFromContext(ctx)

	page, err := h.Events.List(ctx, ownerID, parseEventFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, page)
}

func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := httpx.UserIDFromContext(ctx)

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	event, err := h.Events.Create(ctx, ownerID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusCreated, map[string]any{"event": event})
}

func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := httpx.UserIDFromContext(ctx)

	event, err := h.Events.Get(ctx, ownerID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]any{"event": event})
}

func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := httpx.UserIDFromContext(ctx)

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	event, err := h.Events.Update(ctx, ownerID, r.PathValue("id"), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]any{"event": event})
}

func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := httpx.UserIDFromContext(ctx)

	if err := h.Events.Delete(ctx, ownerID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, map[string]bool{"deleted": true})
}

// parseEventFilter reads the list query parameters. Unparseable values fall
// back to defaults rather than erroring; the service clamps ranges.
func parseEventFilter(r *http.Request) store.EventFilter {
	q := r.URL.Query()

	f := store.EventFilter{
		Query:    q.Get("query"),
		Status:   domain.EventStatus(q.Get("status")),
		Location: q.Get("location"),
	}

	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}

	if v := q.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}

	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	if sort := q.Get("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, ":")
		f.SortField = field
		f.SortDesc = dir == "desc"
	}

	return f
}
