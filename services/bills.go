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

// maxDueYears bounds how far ahead a due date may be set.
const maxDueYears = 10

// BillService manages bill slips (boletos).
type BillService struct {
	db       *storage.Gateway
	notifier ChangeNotifier
	now      func() time.Time
}

func NewBillService(db *storage.Gateway, notifier ChangeNotifier) *BillService {
	return &BillService{db: db, notifier: notifierOrNop(notifier), now: time.Now}
}

type billFields struct {
	title            string
	totalValue       decimal.Decimal
	dueDate          models.Date
	isInstallment    bool
	installmentCount int
}

// validateFields checks the fields shared by create and update. earliestDue
// is the first acceptable due date.
func (s *BillService) validateFields(f *billFields, earliestDue models.Date) error {
	title, err := requireText("title", f.title)
	if err != nil {
		return err
	}
	f.title = title

	if err := requireAtLeast("total_value", f.totalValue, minChargeValue); err != nil {
		return err
	}
	f.totalValue = money(f.totalValue)

	if f.dueDate.IsZero() {
		return invalid("due_date", "is required")
	}
	if f.dueDate.Before(earliestDue.Time) {
		return invalid("due_date", "must not be before %s", earliestDue)
	}
	if latest := today(s.now).AddDate(maxDueYears, 0, 0); f.dueDate.After(latest) {
		return invalid("due_date", "must be within %d years", maxDueYears)
	}

	if f.isInstallment {
		if f.installmentCount < 2 {
			return invalid("installment_count", "must be at least 2 for installment bills")
		}
	} else {
		f.installmentCount = 0
	}
	return nil
}

func (s *BillService) Create(ctx context.Context, userID int64, req models.CreateBillRequest) (*models.Bill, error) {
	f := billFields{
		title:            req.Title,
		totalValue:       req.TotalValue,
		dueDate:          req.DueDate,
		isInstallment:    req.IsInstallment,
		installmentCount: req.InstallmentCount,
	}
	if err := s.validateFields(&f, today(s.now)); err != nil {
		return nil, err
	}

	id, err := s.db.Insert(ctx, `
		INSERT INTO boletos
			(usuario_id, titulo, valor_total, data_vencimento, parcelado, num_parcelas, pago)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		userID, f.title, f.totalValue, f.dueDate, f.isInstallment, f.installmentCount, false)
	if err != nil {
		return nil, fmt.Errorf("save bill: %w", err)
	}

	utils.LogLedgerAction("create", models.EntityBill, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityBill)

	bill := &models.Bill{
		ID:               id,
		UserID:           userID,
		Title:            f.title,
		TotalValue:       f.totalValue,
		DueDate:          f.dueDate,
		IsInstallment:    f.isInstallment,
		InstallmentCount: f.installmentCount,
	}
	s.decorate(bill, today(s.now))
	return bill, nil
}

// decorate fills the derived display fields.
func (s *BillService) decorate(b *models.Bill, today models.Date) {
	b.InstallmentValue = b.TotalValue
	if b.IsInstallment && b.InstallmentCount > 0 {
		b.InstallmentValue = b.TotalValue.Div(decimal.NewFromInt(int64(b.InstallmentCount))).Round(2)
	}
	b.Overdue = !b.Paid && b.DueDate.Before(today.Time)
	b.DaysRemaining = today.DaysUntil(b.DueDate)
}

func (s *BillService) List(ctx context.Context, userID int64) ([]models.Bill, error) {
	now := today(s.now)
	bills := []models.Bill{}
	err := s.db.Query(ctx, `
		SELECT id, titulo, valor_total, data_vencimento, parcelado, num_parcelas, pago, data_pagamento
		FROM boletos
		WHERE usuario_id = $1
		ORDER BY data_vencimento, id`,
		func(rows *sql.Rows) error {
			b := models.Bill{UserID: userID}
			var (
				due     time.Time
				count   sql.NullInt64
				payment sql.NullTime
			)
			if err := rows.Scan(&b.ID, &b.Title, &b.TotalValue, &due, &b.IsInstallment,
				&count, &b.Paid, &payment); err != nil {
				return err
			}
			b.TotalValue = money(b.TotalValue)
			b.DueDate = models.DateOf(due)
			b.InstallmentCount = int(count.Int64)
			if payment.Valid {
				d := models.DateOf(payment.Time)
				b.PaymentDate = &d
			}
			s.decorate(&b, now)
			bills = append(bills, b)
			return nil
		}, userID)
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// Update rewrites a bill. An unpaid bill has no payment date; a paid bill
// without one is paid today. Payment dates in the future are rejected.
func (s *BillService) Update(ctx context.Context, userID, id int64, req models.UpdateBillRequest) error {
	var existingDue time.Time
	if err := s.db.QueryRow(ctx, `SELECT data_vencimento FROM boletos WHERE id = $1 AND usuario_id = $2`,
		id, userID).Scan(&existingDue); err != nil {
		return err
	}

	now := today(s.now)
	earliest := models.DateOf(existingDue)
	if now.Before(earliest.Time) {
		earliest = now
	}

	f := billFields{
		title:            req.Title,
		totalValue:       req.TotalValue,
		dueDate:          req.DueDate,
		isInstallment:    req.IsInstallment,
		installmentCount: req.InstallmentCount,
	}
	if err := s.validateFields(&f, earliest); err != nil {
		return err
	}

	var payment *models.Date
	if req.Paid {
		if req.PaymentDate == nil || req.PaymentDate.IsZero() {
			payment = &now
		} else if req.PaymentDate.After(now.Time) {
			return invalid("payment_date", "must not be in the future")
		} else {
			payment = req.PaymentDate
		}
	}

	var paymentArg any
	if payment != nil {
		paymentArg = *payment
	}

	n, err := s.db.Update(ctx, `
		UPDATE boletos SET
			titulo = $1, valor_total = $2, data_vencimento = $3, parcelado = $4,
			num_parcelas = $5, pago = $6, data_pagamento = $7
		WHERE id = $8 AND usuario_id = $9`,
		f.title, f.totalValue, f.dueDate, f.isInstallment, f.installmentCount, req.Paid, paymentArg, id, userID)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	utils.LogLedgerAction("update", models.EntityBill, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityBill)
	return nil
}

func (s *BillService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.db.Update(ctx, `DELETE FROM boletos WHERE id = $1 AND usuario_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	utils.LogLedgerAction("delete", models.EntityBill, id, userID)
	s.notifier.LedgerChanged(ctx, userID, models.EntityBill)
	return nil
}
