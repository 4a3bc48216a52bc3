package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/pkg/httpx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

// writeServiceError maps service sentinels onto the envelope. Anything
// unrecognized is a 500 with a generic body; the real error only goes to the
// log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		httpx.WriteError(w, http.StatusBadRequest, "Validation failed", vErr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, service.ErrDuplicateUser):
		httpx.WriteError(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, service.ErrInviteNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired invitation token")
	case errors.Is(err, service.ErrInviteEmailMissing):
		httpx.WriteError(w, http.StatusBadRequest, "email is required for this invitation")
	case errors.Is(err, service.ErrEventNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Event not found")
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error",
			slog.Any("error", err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// userView is the public shape of an account; the password hash never
// leaves the server.
type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	InvitedBy *string   `json:"invitedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func sanitizeUser(u domain.User) userView {
	v := userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.InvitedBy != "" {
		invitedBy := u.InvitedBy
		v.InvitedBy = &invitedBy
	}
	return v
}
