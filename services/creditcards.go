package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
	"github.com/shopspring/decimal"
)

type CreditCardService struct {
	db       *storage.Gateway
	notifier ChangeNotifier
	now      func() time.Time
}

func NewCreditCardService(db *storage.Gateway, notifier ChangeNotifier) *CreditCardService {
	return &CreditCardService{db: db, notifier: notifierOrNop(notifier), now: time.Now}
}

func (s *CreditCardService) validate(req *models.CreditCardRequest) error {
	name, err := requireText("account_name", req.AccountName)
	if err != nil {
		return err
	}
	req.AccountName = name

	if req.InstallmentCount < 1 {
		return invalid("installment_count", "must be at least 1")
	}
	if err := requireAtLeast("installment_value", req.InstallmentValue, minChargeValue); err != nil {
		return err
	}
	req.InstallmentValue = money(req.InstallmentValue)

	if req.DueDate.IsZero() {
		return invalid("due_date", "is required")
	}
	if req.Importance == "" {
		req.Importance = models.ImportanceOther
	} else if !models.IsValidImportance(req.Importance) {
		return invalid("importance", "must be one of %v", models.Importances)
	}
	return nil
}

func (s *CreditCardService) Create(ctx context.Context, userID int64, req models.CreditCardRequest) (*models.CreditCardCharge, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	id, err := s.db.Insert(ctx, `
		INSERT INTO cartoes_credito
			(usuario_id, nome_conta, num_parcelas, valor_parcela, importancia, dia_vencimento, data_criacao)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		userID, req.AccountName, req.InstallmentCount, req.InstallmentValue, req.Importance, req.DueDate, now)
	if err != nil {
		return nil, fmt.Errorf("save credit card charge: %w", err)
	}

	utils.LogLedgerAction("create", models.EntityCreditCard, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityCreditCard)

	return &models.CreditCardCharge{
		ID:               id,
		UserID:           userID,
		AccountName:      req.AccountName,
		InstallmentCount: req.InstallmentCount,
		InstallmentValue: req.InstallmentValue,
		Importance:       req.Importance,
		DueDate:          req.DueDate,
		CreatedAt:        now,
		Total:            req.InstallmentValue.Mul(decimal.NewFromInt(int64(req.InstallmentCount))),
	}, nil
}

// List returns the user's charges ordered by due date.
func (s *CreditCardService) List(ctx context.Context, userID int64) ([]models.CreditCardCharge, error) {
	charges := []models.CreditCardCharge{}
	err := s.db.Query(ctx, `
		SELECT id, nome_conta, num_parcelas, valor_parcela, importancia, dia_vencimento, data_criacao
		FROM cartoes_credito
		WHERE usuario_id = $1
		ORDER BY dia_vencimento, id`,
		func(rows *sql.Rows) error {
			c := models.CreditCardCharge{UserID: userID}
			var due time.Time
			if err := rows.Scan(&c.ID, &c.AccountName, &c.InstallmentCount, &c.InstallmentValue,
				&c.Importance, &due, &c.CreatedAt); err != nil {
				return err
			}
			c.DueDate = models.DateOf(due)
			c.InstallmentValue = money(c.InstallmentValue)
			c.Total = c.InstallmentValue.Mul(decimal.NewFromInt(int64(c.InstallmentCount)))
			charges = append(charges, c)
			return nil
		}, userID)
	if err != nil {
		return nil, err
	}
	return charges, nil
}

// Update rewrites a charge owned by the user; other users' rows are not found.
func (s *CreditCardService) Update(ctx context.Context, userID, id int64, req models.CreditCardRequest) error {
	if err := s.validate(&req); err != nil {
		return err
	}

	n, err := s.db.Update(ctx, `
		UPDATE cartoes_credito SET
			nome_conta = $1, num_parcelas = $2, valor_parcela = $3, importancia = $4, dia_vencimento = $5
		WHERE id = $6 AND usuario_id = $7`,
		req.AccountName, req.InstallmentCount, req.InstallmentValue, req.Importance, req.DueDate, id, userID)
	if err != nil {
		return fmt.Errorf("update credit card charge: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	utils.LogLedgerAction("update", models.EntityCreditCard, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityCreditCard)
	return nil
}

func (s *CreditCardService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.db.Update(ctx, `DELETE FROM cartoes_credito WHERE id = $1 AND usuario_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete credit card charge: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	utils.LogLedgerAction("delete", models.EntityCreditCard, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityCreditCard)
	return nil
}
