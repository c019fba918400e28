package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LovationAdmin/financas-api/utils"
)

func TestSessions_IssueRefreshRevoke(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")

	tokens := utils.NewTokenManager("secret", "financas-test", 15*time.Minute)
	sessions := NewSessionService(db, tokens, time.Hour)
	sessions.now = clock.Now

	auth, err := sessions.Issue(ctx, user)
	require.NoError(t, err)
	assert.Len(t, auth.RefreshToken, 72)
	assert.True(t, auth.ExpiresAt.Equal(clock.Now().Add(15*time.Minute)))

	claims, err := tokens.ValidateToken(auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	access, err := sessions.Refresh(ctx, auth.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, err = sessions.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidSession)

	require.NoError(t, sessions.Revoke(ctx, auth.RefreshToken))
	_, err = sessions.Refresh(ctx, auth.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidSession)
	require.NoError(t, sessions.Revoke(ctx, auth.RefreshToken))
}

func TestSessions_ExpiryAndCleanup(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")

	sessions := NewSessionService(db, utils.NewTokenManager("secret", "financas-test", time.Minute), time.Hour)
	sessions.now = clock.Now

	old, err := sessions.Issue(ctx, user)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	fresh, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	_, err = sessions.Refresh(ctx, old.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = sessions.Refresh(ctx, fresh.RefreshToken)
	assert.NoError(t, err)

	removed, err := sessions.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, sessions.RevokeAll(ctx, user.ID))
	_, err = sessions.Refresh(ctx, fresh.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
