package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

// FixedAccountService manages recurring monthly expenses.
type FixedAccountService struct {
	db       *storage.Gateway
	notifier ChangeNotifier
}

func NewFixedAccountService(db *storage.Gateway, notifier ChangeNotifier) *FixedAccountService {
	return &FixedAccountService{db: db, notifier: notifierOrNop(notifier)}
}

func validateFixedAccount(req *models.FixedAccountRequest) error {
	title, err := requireText("title", req.Title)
	if err != nil {
		return err
	}
	req.Title = title
	if err := requireAtLeast("monthly_value", req.MonthlyValue, minChargeValue); err != nil {
		return err
	}
	req.MonthlyValue = money(req.MonthlyValue)
	return nil
}

func (s *FixedAccountService) Create(ctx context.Context, userID int64, req models.FixedAccountRequest) (*models.FixedAccount, error) {
	if err := validateFixedAccount(&req); err != nil {
		return nil, err
	}

	id, err := s.db.Insert(ctx, `
		INSERT INTO contas_fixas (usuario_id, titulo, valor_total)
		VALUES ($1, $2, $3)
		RETURNING id`,
		userID, req.Title, req.MonthlyValue)
	if err != nil {
		return nil, fmt.Errorf("save fixed account: %w", err)
	}

	utils.LogLedgerAction("create", models.EntityFixedAccount, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityFixedAccount)
	return &models.FixedAccount{ID: id, UserID: userID, Title: req.Title, MonthlyValue: req.MonthlyValue}, nil
}

func (s *FixedAccountService) List(ctx context.Context, userID int64) ([]models.FixedAccount, error) {
	accounts := []models.FixedAccount{}
	err := s.db.Query(ctx, `
		SELECT id, titulo, valor_total FROM contas_fixas WHERE usuario_id = $1 ORDER BY id`,
		func(rows *sql.Rows) error {
			a := models.FixedAccount{UserID: userID}
			if err := rows.Scan(&a.ID, &a.Title, &a.MonthlyValue); err != nil {
				return err
			}
			a.MonthlyValue = money(a.MonthlyValue)
			accounts = append(accounts, a)
			return nil
		}, userID)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *FixedAccountService) Update(ctx context.Context, userID, id int64, req models.FixedAccountRequest) error {
	if err := validateFixedAccount(&req); err != nil {
		return err
	}

	n, err := s.db.Update(ctx, `
		UPDATE contas_fixas SET titulo = $1, valor_total = $2 WHERE id = $3 AND usuario_id = $4`,
		req.Title, req.MonthlyValue, id, userID)
	if err != nil {
		return fmt.Errorf("update fixed account: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	utils.LogLedgerAction("update", models.EntityFixedAccount, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityFixedAccount)
	return nil
}

func (s *FixedAccountService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.db.Update(ctx, `DELETE FROM contas_fixas WHERE id = $1 AND usuario_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete fixed account: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	utils.LogLedgerAction("delete", models.EntityFixedAccount, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityFixedAccount)
	return nil
}
