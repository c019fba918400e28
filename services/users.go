package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

const maxPasswordBytes = 72

const userColumns = `id, nome, sobrenome, email, senha, telefone, totp_secret, totp_enabled, created_at, updated_at`

type UserService struct {
	db       *storage.Gateway
	box      *utils.SecretBox
	notifier ChangeNotifier
	now      func() time.Time
}

func NewUserService(db *storage.Gateway, box *utils.SecretBox, notifier ChangeNotifier) *UserService {
	return &UserService{db: db, box: box, notifier: notifierOrNop(notifier), now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		phone      sql.NullString
		totpSecret sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash, &phone,
		&totpSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Phone = phone.String
	u.TOTPSecret = totpSecret.String
	return &u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func validatePassword(field, password string) error {
	if password == "" {
		return invalid(field, "is required")
	}
	if len(password) > maxPasswordBytes {
		return invalid(field, "must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// Signup validates and stores a new user. Email and phone uniqueness are
// checked with a read before the insert.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	switch {
	case req.Name == "":
		return nil, invalid("name", "is required")
	case req.Surname == "":
		return nil, invalid("surname", "is required")
	case req.Email == "":
		return nil, invalid("email", "is required")
	case !utils.IsValidEmail(req.Email):
		return nil, invalid("email", "is not a valid email address")
	case req.Phone != "" && !utils.IsValidPhone(req.Phone):
		return nil, invalid("phone", "must look like +5511987654321")
	}
	if err := validatePassword("password", req.Password); err != nil {
		return nil, err
	}

	if taken, err := s.emailTaken(ctx, req.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if req.Phone != "" {
		if taken, err := s.phoneTaken(ctx, req.Phone, 0); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrPhoneTaken
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	id, err := s.db.Insert(ctx, `
		INSERT INTO usuarios (nome, sobrenome, email, senha, telefone, totp_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		req.Name, req.Surname, req.Email, hash, nullable(req.Phone), false, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	utils.LogAuthAction("Signup", req.Email, true)
	return &models.User{
		ID:           id,
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *UserService) emailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM usuarios WHERE email = $1 AND id <> $2`, email, exceptID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) phoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM usuarios WHERE telefone = $1 AND id <> $2`, phone, exceptID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE email = $1`, utils.NormalizeEmail(email)))
}

func (s *UserService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE telefone = $1`, strings.TrimSpace(phone)))
}

// Authenticate checks email and password, then the second factor when the
// user has one enabled.
func (s *UserService) Authenticate(ctx context.Context, email, password, totpCode string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		utils.LogAuthAction("Login", email, false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		utils.LogAuthAction("Login", email, false)
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		if totpCode == "" {
			return nil, ErrTOTPRequired
		}
		ok, err := s.checkTOTP(user, totpCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			utils.LogAuthAction("Login 2FA", email, false)
			return nil, ErrInvalidTOTP
		}
	}

	utils.LogAuthAction("Login", email, true)
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Phone = strings.TrimSpace(req.Phone)

	switch {
	case req.Name == "":
		return nil, invalid("name", "is required")
	case req.Surname == "":
		return nil, invalid("surname", "is required")
	case req.Phone != "" && !utils.IsValidPhone(req.Phone):
		return nil, invalid("phone", "must look like +5511987654321")
	}

	if req.Phone != "" {
		if taken, err := s.phoneTaken(ctx, req.Phone, userID); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrPhoneTaken
		}
	}

	n, err := s.db.Update(ctx, `
		UPDATE usuarios SET nome = $1, sobrenome = $2, telefone = $3, updated_at = $4
		WHERE id = $5`,
		req.Name, req.Surname, nullable(req.Phone), s.now().UTC(), userID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetByID(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := validatePassword("new_password", next); err != nil {
		return err
	}
	return s.SetPassword(ctx, userID, next)
}

// SetPassword stores a fresh hash for the user and ends all of their
// sessions in the same transaction.
func (s *UserService) SetPassword(ctx context.Context, userID int64, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE usuarios SET senha = $1, updated_at = $2 WHERE id = $3`,
			hash, s.now().UTC(), userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
		return err
	})
}

// DeleteAccount removes the user and every row they own in one transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	statements := []string{
		`DELETE FROM password_resets WHERE user_id = $1`,
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM renda WHERE user_id = $1`,
		`DELETE FROM cartoes_credito WHERE usuario_id = $1`,
		`DELETE FROM boletos WHERE usuario_id = $1`,
		`DELETE FROM contas_fixas WHERE usuario_id = $1`,
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.LedgerChanged(ctx, userID, models.EntityAccount)
	return nil
}

// ============================================================================
// TWO-FACTOR AUTHENTICATION
// ============================================================================

// SetupTOTP generates and stores a new (not yet enabled) secret. It fails with
// ErrTOTPAlreadyEnabled while 2FA is on.
func (s *UserService) SetupTOTP(ctx context.Context, userID int64) (*models.TOTPSetupResponse, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Re-enrolling would switch 2FA off without a code; disable first.
	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	setup, err := utils.GenerateTOTPSecret(user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	sealed, err := s.box.Seal(setup.Secret)
	if err != nil {
		return nil, fmt.Errorf("seal totp secret: %w", err)
	}

	if _, err := s.db.Update(ctx, `
		UPDATE usuarios SET totp_secret = $1, totp_enabled = $2, updated_at = $3 WHERE id = $4`,
		sealed, false, s.now().UTC(), userID); err != nil {
		return nil, fmt.Errorf("store totp secret: %w", err)
	}

	return &models.TOTPSetupResponse{Secret: setup.Secret, URL: setup.URL, QRCode: setup.QRCode}, nil
}

func (s *UserService) EnableTOTP(ctx context.Context, userID int64, code string) error {
	return s.toggleTOTP(ctx, userID, code, true)
}

func (s *UserService) DisableTOTP(ctx context.Context, userID int64, code string) error {
	return s.toggleTOTP(ctx, userID, code, false)
}

func (s *UserService) toggleTOTP(ctx context.Context, userID int64, code string, enable bool) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.checkTOTP(user, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTOTP
	}

	secret := nullable(user.TOTPSecret)
	if !enable {
		secret = sql.NullString{}
	}
	_, err = s.db.Update(ctx, `
		UPDATE usuarios SET totp_enabled = $1, totp_secret = $2, updated_at = $3 WHERE id = $4`,
		enable, secret, s.now().UTC(), userID)
	return err
}

func (s *UserService) checkTOTP(user *models.User, code string) (bool, error) {
	if user.TOTPSecret == "" {
		return false, ErrTOTPNotSetup
	}
	secret, err := s.box.Open(user.TOTPSecret)
	if err != nil {
		return false, fmt.Errorf("open totp secret: %w", err)
	}
	return utils.VerifyTOTP(secret, code), nil
}
