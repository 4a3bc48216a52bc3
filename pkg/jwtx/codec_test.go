package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCodec() *Codec {
	return &Codec{
		Issuer:        "sundial-test",
		AccessSecret:  []byte("access-secret-for-tests-only-0001"),
		RefreshSecret: []byte("refresh-secret-for-tests-only-001"),
		AccessTTL:     DefaultAccessTokenTTL,
		RefreshTTL:    DefaultRefreshTokenTTL,
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	c := testCodec()

	t.Run("access token carries subject and type", func(t *testing.T) {
		raw, err := c.SignAccess("user-1")
		require.NoError(t, err)

		claims, err := c.Verify(raw, TokenAccess)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, string(TokenAccess), claims.Type)
		require.Empty(t, claims.TID)
	})

	t.Run("refresh token carries the instance id", func(t *testing.T) {
		raw, err := c.SignRefresh("user-1", "tid-42")
		require.NoError(t, err)

		claims, err := c.Verify(raw, TokenRefresh)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "tid-42", claims.TID)
	})
}

func TestVerifyRejectsTypeConfusion(t *testing.T) {
	t.Parallel()
	c := testCodec()

	access, err := c.SignAccess("user-1")
	require.NoError(t, err)
	refresh, err := c.SignRefresh("user-1", "tid-1")
	require.NoError(t, err)

	// Even though both are valid JWTs, each is only valid for its own type:
	// the signing key differs per type, so the signature check alone fails.
	_, err = c.Verify(access, TokenRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = c.Verify(refresh, TokenAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	t.Parallel()
	c := testCodec()

	raw, err := c.SignAccess("user-1")
	require.NoError(t, err)

	t.Run("tampered payload", func(t *testing.T) {
		_, err := c.Verify(raw+"x", TokenAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		other := testCodec()
		other.AccessSecret = []byte("a-completely-different-secret-xx")
		foreign, err := other.SignAccess("user-1")
		require.NoError(t, err)

		_, err = c.Verify(foreign, TokenAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := c.Verify("not.a.jwt", TokenAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifyExpiryBoundary(t *testing.T) {
	t.Parallel()

	t.Run("zero TTL fails immediately", func(t *testing.T) {
		c := testCodec()
		c.AccessTTL = 0
		raw, err := c.SignAccess("user-1")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = c.Verify(raw, TokenAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("short TTL verifies before expiry", func(t *testing.T) {
		c := testCodec()
		c.AccessTTL = 5 * time.Second
		raw, err := c.SignAccess("user-1")
		require.NoError(t, err)

		_, err = c.Verify(raw, TokenAccess)
		require.NoError(t, err)
	})

	t.Run("expired token fails", func(t *testing.T) {
		c := testCodec()
		c.AccessTTL = -time.Minute
		raw, err := c.SignAccess("user-1")
		require.NoError(t, err)

		_, err = c.Verify(raw, TokenAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
