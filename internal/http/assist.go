package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/pkg/httpx"
)

type AssistHandler struct {
	Assist *service.AssistService
}

type improveDescriptionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type generateAgendaRequest struct {
	Title          string    `json:"title"`
	StartAt        time.Time `json:"startAt"`
	EndAt          time.Time `json:"endAt"`
	AttendeesCount int       `json:"attendeesCount"`
}

type smartSuggestionsRequest struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type conflictCheckRequest struct {
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

func (h *AssistHandler) HandleImproveDescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req improveDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.Assist.ImproveDescription(ctx, userID, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, result)
}

func (h *AssistHandler) HandleGenerateAgenda(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req generateAgendaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		httpx.WriteError(w, http.StatusBadRequest, "startAt and endAt are required")
		return
	}

	result, err := h.Assist.GenerateAgenda(ctx, userID, req.Title, req.StartAt, req.EndAt, req.AttendeesCount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, result)
}

func (h *AssistHandler) HandleSmartSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req smartSuggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.Assist.SmartSuggestions(ctx, userID, req.Title, req.Location, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, result)
}

func (h *AssistHandler) HandleConflictCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req conflictCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		httpx.WriteError(w, http.StatusBadRequest, "startAt and endAt are required")
		return
	}

	result, err := h.Assist.ConflictCheck(ctx, userID, req.StartAt, req.EndAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, result)
}
