package services

import (
	"context"
	"fmt"
	"time"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
	"github.com/shopspring/decimal"
)

// IncomeService keeps one monthly income value per user.
type IncomeService struct {
	db       *storage.Gateway
	notifier ChangeNotifier
	now      func() time.Time
}

func NewIncomeService(db *storage.Gateway, notifier ChangeNotifier) *IncomeService {
	return &IncomeService{db: db, notifier: notifierOrNop(notifier), now: time.Now}
}

// Get returns storage.ErrNotFound when the user never set an income.
func (s *IncomeService) Get(ctx context.Context, userID int64) (*models.Income, error) {
	inc := models.Income{UserID: userID}
	err := s.db.QueryRow(ctx, `SELECT valor, data_atualizacao FROM renda WHERE user_id = $1`, userID).
		Scan(&inc.Amount, &inc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inc.Amount = money(inc.Amount)
	return &inc, nil
}

// Set inserts or replaces the user's income.
func (s *IncomeService) Set(ctx context.Context, userID int64, amount decimal.Decimal) (*models.Income, error) {
	if amount.IsNegative() {
		return nil, invalid("amount", "must not be negative")
	}
	amount = money(amount)
	now := s.now().UTC()

	if _, err := s.db.Update(ctx, `
		INSERT INTO renda (user_id, valor, data_atualizacao) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET valor = excluded.valor, data_atualizacao = excluded.data_atualizacao`,
		userID, amount, now); err != nil {
		return nil, fmt.Errorf("save income: %w", err)
	}

	utils.LogLedgerAction("upsert", models.EntityIncome, userID, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityIncome)
	return &models.Income{UserID: userID, Amount: amount, UpdatedAt: now}, nil
}
