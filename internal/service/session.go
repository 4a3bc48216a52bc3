package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sundialhq/sundial/internal/domain"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/cryptox"
	"github.com/sundialhq/sundial/pkg/idx"
	"github.com/sundialhq/sundial/pkg/jwtx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

// SessionService owns the access/refresh token lifecycle. Access tokens are
// stateless; refresh tokens are backed by a server-side ledger keyed by the
// fingerprint of the raw JWT, so a token the ledger no longer holds is dead
// no matter how valid its signature still looks.
type SessionService struct {
	Codec *jwtx.Codec
	Store store.Store
}

// CreateSession issues a fresh token pair for the user and records the
// refresh token in the ledger. Each call inserts a new row and touches
// nothing else, so a user can hold any number of concurrent sessions.
func (s *SessionService) CreateSession(ctx context.Context, userID string) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Codec.SignAccess(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Codec.SignRefresh(userID, uuid.NewString())
	if err != nil {
		return domain.TokenPair{}, err
	}

	row := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.Codec.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, row); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// RotateRefreshToken exchanges a valid refresh token for a fresh pair. The
// old ledger row is consumed and the new one persisted in a single
// transaction, so a given raw token rotates at most once; a replay loses
// with ErrInvalidRefresh. Returns the owning user's id alongside the pair.
func (s *SessionService) RotateRefreshToken(ctx context.Context, raw string) (string, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	now := time.Now()

	claims, err := s.Codec.Verify(raw, jwtx.TokenRefresh)
	if err != nil {
		return "", domain.TokenPair{}, ErrInvalidRefresh
	}

	fp := cryptox.FingerprintToken(raw)

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		row, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("refresh token not in ledger",
					slog.String("user_id", claims.Subject),
				)
				return ErrInvalidRefresh
			}
			return err
		}

		if now.After(row.ExpiresAt) {
			return ErrInvalidRefresh
		}

		// Consume the old row first; a concurrent rotation on the same raw
		// token sees ErrNotFound here and fails cleanly.
		if err := tx.RefreshTokens().DeleteRefreshTokenByHash(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		access, err := s.Codec.SignAccess(row.UserID)
		if err != nil {
			return err
		}
		refresh, err := s.Codec.SignRefresh(row.UserID, uuid.NewString())
		if err != nil {
			return err
		}

		newRow := domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    row.UserID,
			TokenHash: cryptox.FingerprintToken(refresh),
			ExpiresAt: now.Add(s.Codec.RefreshTTL),
			CreatedAt: now,
		}
		if err := tx.RefreshTokens().CreateRefreshToken(ctx, newRow); err != nil {
			return err
		}

		pair = domain.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
		}
		return nil
	})
	if err != nil {
		return "", domain.TokenPair{}, err
	}

	return claims.Subject, pair, nil
}

// RevokeRefreshToken removes the token's ledger row. An empty, malformed or
// already-consumed token is a no-op so logout always succeeds.
func (s *SessionService) RevokeRefreshToken(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	fp := cryptox.FingerprintToken(raw)
	err := s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
