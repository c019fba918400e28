package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

// SessionService issues access tokens and tracks refresh tokens.
type SessionService struct {
	db         *storage.Gateway
	tokens     *utils.TokenManager
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessionService(db *storage.Gateway, tokens *utils.TokenManager, refreshTTL time.Duration) *SessionService {
	return &SessionService{db: db, tokens: tokens, refreshTTL: refreshTTL, now: time.Now}
}

// Issue creates a session row and returns both tokens for the user.
func (s *SessionService) Issue(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	now := s.now().UTC()
	refresh := utils.GenerateRefreshToken()
	if _, err := s.db.Update(ctx, `
		INSERT INTO sessions (user_id, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		user.ID, refresh, now.Add(s.refreshTTL), now); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.tokens.TTL()),
		User:         *user,
	}, nil
}

// Refresh returns a new access token for a live refresh token.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var (
		userID    int64
		email     string
		expiresAt time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT s.user_id, u.email, s.expires_at
		FROM sessions s
		JOIN usuarios u ON u.id = s.user_id
		WHERE s.refresh_token = $1`, refreshToken).Scan(&userID, &email, &expiresAt)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidSession
	}
	if err != nil {
		return "", err
	}
	if !s.now().Before(expiresAt) {
		return "", ErrInvalidSession
	}
	return s.tokens.GenerateAccessToken(userID, email)
}

// Revoke deletes the session. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	_, err := s.db.Update(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

// RevokeAll ends every session of the user, e.g. after a password reset.
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) error {
	_, err := s.db.Update(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// CleanExpired removes expired sessions and used or expired reset tickets.
func (s *SessionService) CleanExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	sessions, err := s.db.Update(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	resets, err := s.db.Update(ctx, `DELETE FROM password_resets WHERE expires_at < $1 OR used_at IS NOT NULL`, now)
	if err != nil {
		return sessions, err
	}
	return sessions + resets, nil
}
