package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/pkg/httpx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

type AuthHandler struct {
	Users     *service.UserService
	Sessions  *service.SessionService
	Events    *service.EventService
	Transport httpx.Transport
	Cookies   *CookieWriter
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// sessionResponse is the body for every endpoint that issues tokens. In
// cookie mode the tokens travel as cookies instead of JSON.
type sessionResponse struct {
	User   userView          `json:"user"`
	Tokens *domain.TokenPair `json:"tokens,omitempty"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.Users.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Starter events make the first calendar view non-empty. Seeding
	// failures shouldn't fail the registration; the list endpoint retries
	// lazily.
	if err := h.Events.SeedStarterEvents(ctx, user.ID); err != nil {
		slogx.FromContext(ctx).Error("failed to seed starter events",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	h.writeSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.Users.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.writeSession(w, r, user, http.StatusOK)
}

// HandleLogout revokes the presented refresh token. It never fails the
// caller: an absent or already-dead token still logs out.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := h.extractRefreshToken(r)
	if err := h.Sessions.RevokeRefreshToken(ctx, raw); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Transport == httpx.TransportCookie {
		h.Cookies.Clear(w)
	}
	httpx.WriteData(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, _ := httpx.UserIDFromContext(ctx)
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	httpx.WriteData(w, http.StatusOK, map[string]any{"user": sanitizeUser(user)})
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := h.extractRefreshToken(r)
	if raw == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}

	userID, pair, err := h.Sessions.RotateRefreshToken(ctx, raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	h.writePair(w, user, pair, http.StatusOK)
}

// HandleCSRF hands the frontend a CSRF token to echo in the header. Reuses
// the cookie value when one is present so parallel tabs agree.
func (h *AuthHandler) HandleCSRF(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(httpx.CookieCSRFToken); err == nil && c.Value != "" {
		token = c.Value
	} else {
		token = h.Cookies.WriteCSRF(w)
	}
	httpx.WriteData(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, user domain.User, code int) {
	pair, err := h.Sessions.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writePair(w, user, pair, code)
}

func (h *AuthHandler) writePair(w http.ResponseWriter, user domain.User, pair domain.TokenPair, code int) {
	resp := sessionResponse{User: sanitizeUser(user)}
	if h.Transport == httpx.TransportCookie {
		h.Cookies.WriteSession(w, pair)
	} else {
		resp.Tokens = &pair
	}
	httpx.WriteData(w, code, resp)
}

// extractRefreshToken reads the raw refresh token from the transport's
// canonical place: the HttpOnly cookie in cookie mode, the JSON body in
// bearer mode.
func (h *AuthHandler) extractRefreshToken(r *http.Request) string {
	if h.Transport == httpx.TransportCookie {
		if c, err := r.Cookie(httpx.CookieRefreshToken); err == nil {
			return c.Value
		}
		return ""
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}
