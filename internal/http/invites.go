package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/pkg/httpx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

type InviteHandler struct {
	Invites   *service.InviteService
	Users     *service.UserService
	Sessions  *service.SessionService
	Events    *service.EventService
	Mailer    *service.Mailer
	Transport httpx.Transport
	Cookies   *CookieWriter
}

type createInviteRequest struct {
	Email string `json:"email"`
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *InviteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	inviterID, _ := httpx.UserIDFromContext(ctx)
	_, link, err := h.Invites.CreateInvite(ctx, inviterID, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	emailResult := service.EmailResult{Sent: false, Reason: service.ReasonNoEmailProvided}
	if req.Email != "" {
		inviterName := "A user"
		if inviter, err := h.Users.GetByID(ctx, inviterID); err == nil {
			inviterName = inviter.Name
		}
		emailResult = h.Mailer.SendInviteEmail(ctx, req.Email, link, inviterName)
	}

	httpx.WriteData(w, http.StatusCreated, map[string]any{
		"inviteLink":  link,
		"emailResult": emailResult,
	})
}

// HandleAccept consumes an invitation. An authenticated caller merges it
// into their account; an anonymous caller signs up through it and walks away
// with a session.
func (h *InviteHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired invitation token")
		return
	}

	if userID, ok := httpx.UserIDFromContext(ctx); ok {
		if err := h.Invites.AcceptAuthenticated(ctx, req.Token, userID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteData(w, http.StatusOK, map[string]string{
			"message": "Invitation accepted for current account",
		})
		return
	}

	if req.Name == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"name and password are required for new account acceptance")
		return
	}

	user, err := h.Invites.AcceptAnonymous(ctx, req.Token, req.Name, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUser) {
			httpx.WriteError(w, http.StatusBadRequest,
				"User with this email already exists, please login and accept invite")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	if err := h.Events.SeedStarterEvents(ctx, user.ID); err != nil {
		slogx.FromContext(ctx).Error("failed to seed starter events",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	pair, err := h.Sessions.CreateSession(ctx, user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := sessionResponse{User: sanitizeUser(user)}
	if h.Transport == httpx.TransportCookie {
		h.Cookies.WriteSession(w, pair)
	} else {
		resp.Tokens = &pair
	}
	httpx.WriteData(w, http.StatusCreated, resp)
}
