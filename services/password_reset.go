package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

const resetMessage = "Your password reset code is: %s"

type PasswordResetConfig struct {
	CodeTTL        time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

// PasswordResetService runs the SMS reset flow: a ticket per request, a
// 6-digit code derived from a sealed per-ticket secret, expiry, an attempt
// limit and single use.
type PasswordResetService struct {
	db     *storage.Gateway
	users  *UserService
	sender SMSSender
	box    *utils.SecretBox
	cfg    PasswordResetConfig
	now    func() time.Time
}

func NewPasswordResetService(db *storage.Gateway, users *UserService, sender SMSSender,
	box *utils.SecretBox, cfg PasswordResetConfig) *PasswordResetService {
	return &PasswordResetService{
		db:     db,
		users:  users,
		sender: sender,
		box:    box,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Request issues a ticket for the phone and sends its code by SMS.
func (s *PasswordResetService) Request(ctx context.Context, phone string) (*models.ForgotPasswordResponse, error) {
	phone = strings.TrimSpace(phone)
	if !utils.IsValidPhone(phone) {
		return nil, invalid("phone", "must look like +5511987654321")
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	// Codes depend on the whole second of issue.
	now := s.now().UTC().Truncate(time.Second)
	if s.cfg.ResendCooldown > 0 {
		var recent int
		if err := s.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM password_resets WHERE telefone = $1 AND issued_at > $2`,
			phone, now.Add(-s.cfg.ResendCooldown)).Scan(&recent); err != nil {
			return nil, fmt.Errorf("check reset cooldown: %w", err)
		}
		if recent > 0 {
			return nil, ErrResetCooldown
		}
	}

	secret, err := utils.NewResetSecret(phone)
	if err != nil {
		return nil, fmt.Errorf("generate reset secret: %w", err)
	}
	code, err := utils.ResetCode(secret, now, s.cfg.CodeTTL)
	if err != nil {
		return nil, fmt.Errorf("generate reset code: %w", err)
	}
	sealed, err := s.box.Seal(secret)
	if err != nil {
		return nil, fmt.Errorf("seal reset secret: %w", err)
	}

	ticket := models.PasswordReset{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Phone:     phone,
		Secret:    sealed,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
	}

	// Send first: a ticket whose code never left the server is useless.
	if err := s.sender.Send(ctx, phone, fmt.Sprintf(resetMessage, code)); err != nil {
		utils.LogResetAction("SMS failed", phone, ticket.ID)
		return nil, err
	}

	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		// A new ticket supersedes any open one for the same user.
		if _, err := tx.ExecContext(ctx,
			`UPDATE password_resets SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`,
			now, user.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO password_resets (id, user_id, telefone, secret, issued_at, expires_at, attempts, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`,
			ticket.ID, ticket.UserID, ticket.Phone, ticket.Secret, ticket.IssuedAt, ticket.ExpiresAt, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store reset ticket: %w", err)
	}

	utils.LogResetAction("Code sent", phone, ticket.ID)
	return &models.ForgotPasswordResponse{ResetID: ticket.ID, ExpiresAt: ticket.ExpiresAt}, nil
}

// Reset checks the code of a ticket and, when it matches, sets the new
// password and closes the ticket. A confirmation mismatch is rejected before
// the code is looked at and costs no attempt. Every code check spends one
// attempt up front, so concurrent guesses cannot exceed the limit.
func (s *PasswordResetService) Reset(ctx context.Context, req models.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := validatePassword("new_password", req.NewPassword); err != nil {
		return err
	}

	ticket, err := s.get(ctx, req.ResetID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.closed(ticket, now); err != nil {
		return err
	}

	attempts, err := s.spendAttempt(ctx, ticket.ID, now)
	if err != nil {
		return err
	}

	secret, err := s.box.Open(ticket.Secret)
	if err != nil {
		return fmt.Errorf("open reset secret: %w", err)
	}

	if !utils.VerifyResetCode(strings.TrimSpace(req.Code), secret, ticket.IssuedAt, s.cfg.CodeTTL) {
		utils.LogResetAction("Invalid code", ticket.Phone, ticket.ID)
		if attempts >= s.cfg.MaxAttempts {
			return ErrResetAttemptsExceeded
		}
		return ErrResetCodeInvalid
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		// Guard on used_at so two concurrent resets cannot both win.
		res, err := tx.ExecContext(ctx, `
			UPDATE password_resets SET used_at = $1
			WHERE id = $2 AND used_at IS NULL AND attempts <= $3`,
			now, ticket.ID, s.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrResetUsed
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE usuarios SET senha = $1, updated_at = $2 WHERE id = $3`, hash, now, ticket.UserID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, ticket.UserID)
		return err
	})
	if err != nil {
		return err
	}

	utils.LogResetAction("Password reset", ticket.Phone, ticket.ID)
	return nil
}

// closed reports why a ticket no longer accepts codes, or nil.
func (s *PasswordResetService) closed(t *models.PasswordReset, now time.Time) error {
	switch {
	case t.UsedAt != nil:
		return ErrResetUsed
	case !now.Before(t.ExpiresAt):
		return ErrResetExpired
	case t.Attempts >= s.cfg.MaxAttempts:
		return ErrResetAttemptsExceeded
	}
	return nil
}

// spendAttempt counts one code check against the ticket in a single guarded
// statement and returns the attempts used so far. A ticket that is used,
// expired or out of attempts is not touched.
func (s *PasswordResetService) spendAttempt(ctx context.Context, id string, now time.Time) (int, error) {
	var attempts int
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			UPDATE password_resets SET attempts = attempts + 1
			WHERE id = $1 AND used_at IS NULL AND attempts < $2 AND expires_at > $3
			RETURNING attempts`,
			id, s.cfg.MaxAttempts, now).Scan(&attempts)
	})
	if errors.Is(err, storage.ErrNotFound) {
		// Lost a race: report the state the ticket is in now.
		ticket, getErr := s.get(ctx, id)
		if getErr != nil {
			return 0, getErr
		}
		if closedErr := s.closed(ticket, now); closedErr != nil {
			return 0, closedErr
		}
		return 0, ErrResetAttemptsExceeded
	}
	if err != nil {
		return 0, fmt.Errorf("record reset attempt: %w", err)
	}
	return attempts, nil
}

func (s *PasswordResetService) get(ctx context.Context, id string) (*models.PasswordReset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrResetNotFound
	}

	var (
		t      models.PasswordReset
		usedAt sql.NullTime
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, telefone, secret, issued_at, expires_at, attempts, used_at
		FROM password_resets WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Phone, &t.Secret, &t.IssuedAt, &t.ExpiresAt, &t.Attempts, &usedAt)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrResetNotFound
	}
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return &t, nil
}
