package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/cryptox"
	"github.com/sundialhq/sundial/pkg/idx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

var (
	ErrInviteNotFound     = errors.New("invalid or expired invitation token")
	ErrInviteEmailMissing = errors.New("email is required for this invitation")
)

// DefaultInviteTTL applies when config doesn't override it.
const DefaultInviteTTL = 72 * time.Hour

type InviteService struct {
	Store        store.Store
	ClientOrigin string
	InviteTTL    time.Duration
}

func (s *InviteService) ttl() time.Duration {
	if s.InviteTTL > 0 {
		return s.InviteTTL
	}
	return DefaultInviteTTL
}

// CreateInvite mints a single-use invitation token for the inviter and
// returns the raw token together with the accept link. Only the fingerprint
// is stored. The optional email is the intended recipient; delivery is the
// caller's concern.
func (s *InviteService) CreateInvite(
	ctx context.Context,
	inviterID string,
	email string,
) (string, string, error) {
	log := slogx.FromContext(ctx)
	now := time.Now()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return "", "", err
	}

	inv := domain.Invitation{
		ID:        idx.New().String(),
		InviterID: inviterID,
		Email:     NormalizeEmail(email),
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		log.Error("failed to create invitation", slog.Any("error", err))
		return "", "", err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("inviter_id", inviterID),
	)

	link := strings.TrimRight(s.ClientOrigin, "/") +
		"/accept-invite?token=" + url.QueryEscape(token)
	return token, link, nil
}

// AcceptAuthenticated merges an invitation into an existing account and
// consumes it. invited_by is bound at most once, and never to yourself:
// accepting your own invitation still consumes it but records nothing. No
// new session is issued; the caller is already logged in.
func (s *InviteService) AcceptAuthenticated(ctx context.Context, token, userID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := s.lookupPending(ctx, tx, token)
		if err != nil {
			return err
		}

		// The conditional accepted_at update is the exactly-once barrier:
		// of two concurrent accepts only one sees a row to flip.
		if err := tx.Invitations().MarkInvitationAccepted(ctx, inv.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotFound
			}
			return err
		}

		if inv.InviterID != userID {
			return tx.Users().SetInvitedBy(ctx, userID, inv.InviterID)
		}
		return nil
	})
}

// AcceptAnonymous consumes an invitation by creating a brand-new account
// bound to the inviter. The account email comes from the invitation when it
// has one, otherwise from the request. The caller issues the session for the
// returned user.
func (s *InviteService) AcceptAnonymous(
	ctx context.Context,
	token, name, password, email string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	var newUser domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := s.lookupPending(ctx, tx, token)
		if err != nil {
			return err
		}

		accountEmail := inv.Email
		if accountEmail == "" {
			accountEmail = email
		}
		if accountEmail == "" {
			return ErrInviteEmailMissing
		}

		hash, err := cryptox.HashPassword(password)
		if err != nil {
			return err
		}

		newUser = domain.User{
			ID:           idx.New().String(),
			Name:         name,
			Email:        accountEmail,
			PasswordHash: hash,
			Role:         domain.DefaultRole,
			InvitedBy:    inv.InviterID,
			CreatedAt:    time.Now(),
		}
		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateUser
			}
			return err
		}

		if err := tx.Invitations().MarkInvitationAccepted(ctx, inv.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	log.Info("user registered via invitation", slog.String("user_id", newUser.ID))
	return newUser, nil
}

func (s *InviteService) lookupPending(ctx context.Context, tx store.Tx, token string) (domain.Invitation, error) {
	if token == "" {
		return domain.Invitation{}, ErrInviteNotFound
	}
	fp := cryptox.FingerprintToken(token)
	inv, err := tx.Invitations().GetPendingInvitationByTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInviteNotFound
		}
		return domain.Invitation{}, err
	}
	if inv.Expired(time.Now()) {
		return domain.Invitation{}, ErrInviteNotFound
	}
	return inv, nil
}
