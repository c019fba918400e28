package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
)

func TestIncome_SetAndGet(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	notifier := &recordingNotifier{}
	income := NewIncomeService(db, notifier)
	income.now = clock.Now

	_, err := income.Get(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = income.Set(ctx, user.ID, amt("-1"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = income.Set(ctx, user.ID, amt("5000"))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	saved, err := income.Set(ctx, user.ID, amt("5500.555"))
	require.NoError(t, err)
	assert.Equal(t, "5500.56", saved.Amount.StringFixed(2))

	got, err := income.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "5500.56", got.Amount.StringFixed(2))
	assert.True(t, got.UpdatedAt.Equal(clock.Now()))
	assert.Equal(t, []string{models.EntityIncome, models.EntityIncome}, notifier.Events())
}

func cardRequest(due models.Date) models.CreditCardRequest {
	return models.CreditCardRequest{
		AccountName:      "Nubank",
		InstallmentCount: 3,
		InstallmentValue: amt("100"),
		Importance:       models.ImportanceNecessary,
		DueDate:          due,
	}
}

func TestCreditCards_CRUD(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	notifier := &recordingNotifier{}
	cards := NewCreditCardService(db, notifier)
	cards.now = clock.Now

	created, err := cards.Create(ctx, user.ID, cardRequest(models.NewDate(2024, time.March, 20)))
	require.NoError(t, err)
	assert.Equal(t, "300.00", created.Total.StringFixed(2))

	req := cardRequest(models.NewDate(2024, time.February, 5))
	req.Importance = ""
	_, err = cards.Create(ctx, user.ID, req)
	require.NoError(t, err)

	list, err := cards.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-02-05", list[0].DueDate.String(), "ordered by due date")
	assert.Equal(t, models.ImportanceOther, list[0].Importance)
	assert.Equal(t, created.ID, list[1].ID)
	assert.Equal(t, "300.00", list[1].Total.StringFixed(2))

	update := cardRequest(models.NewDate(2024, time.April, 1))
	update.InstallmentCount = 10
	update.InstallmentValue = amt("49.9")
	require.NoError(t, cards.Update(ctx, user.ID, created.ID, update))

	list, err = cards.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "499.00", list[1].Total.StringFixed(2))
	assert.Equal(t, "2024-04-01", list[1].DueDate.String())

	require.NoError(t, cards.Delete(ctx, user.ID, created.ID))
	assert.ErrorIs(t, cards.Delete(ctx, user.ID, created.ID), storage.ErrNotFound)

	assert.Equal(t, []string{
		models.EntityCreditCard, models.EntityCreditCard, models.EntityCreditCard, models.EntityCreditCard,
	}, notifier.Events())
}

func TestCreditCards_Validation(t *testing.T) {
	db, _, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	cards := NewCreditCardService(db, nil)
	due := models.NewDate(2024, time.March, 20)

	tests := []struct {
		name   string
		mutate func(r *models.CreditCardRequest)
		field  string
	}{
		{"blank name", func(r *models.CreditCardRequest) { r.AccountName = " " }, "account_name"},
		{"zero installments", func(r *models.CreditCardRequest) { r.InstallmentCount = 0 }, "installment_count"},
		{"value below a cent", func(r *models.CreditCardRequest) { r.InstallmentValue = amt("0.001") }, "installment_value"},
		{"missing due date", func(r *models.CreditCardRequest) { r.DueDate = models.Date{} }, "due_date"},
		{"unknown importance", func(r *models.CreditCardRequest) { r.Importance = "Urgente" }, "importance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cardRequest(due)
			tt.mutate(&req)
			_, err := cards.Create(ctx, user.ID, req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreditCards_OwnerScoped(t *testing.T) {
	db, _, users := setup(t)
	ctx := context.Background()
	ana := createUser(t, users, "ana@example.com", "")
	bia := createUser(t, users, "bia@example.com", "")
	cards := NewCreditCardService(db, nil)

	charge, err := cards.Create(ctx, ana.ID, cardRequest(models.NewDate(2024, time.March, 20)))
	require.NoError(t, err)

	assert.ErrorIs(t, cards.Update(ctx, bia.ID, charge.ID, cardRequest(models.NewDate(2024, time.May, 1))), storage.ErrNotFound)
	assert.ErrorIs(t, cards.Delete(ctx, bia.ID, charge.ID), storage.ErrNotFound)

	list, err := cards.List(ctx, bia.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func billRequest(due models.Date) models.CreateBillRequest {
	return models.CreateBillRequest{
		Title:      "Internet",
		TotalValue: amt("300"),
		DueDate:    due,
	}
}

func TestBills_Create(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	bills := NewBillService(db, nil)
	bills.now = clock.Now

	bill, err := bills.Create(ctx, user.ID, billRequest(models.NewDate(2024, time.March, 20)))
	require.NoError(t, err)
	assert.False(t, bill.Paid)
	assert.Nil(t, bill.PaymentDate)
	assert.Equal(t, 10, bill.DaysRemaining)
	assert.False(t, bill.Overdue)
	assert.Equal(t, 0, bill.InstallmentCount)
	assert.Equal(t, "300.00", bill.InstallmentValue.StringFixed(2))

	// Due today is allowed.
	_, err = bills.Create(ctx, user.ID, billRequest(models.NewDate(2024, time.March, 10)))
	require.NoError(t, err)

	installments := billRequest(models.NewDate(2024, time.April, 10))
	installments.IsInstallment = true
	installments.InstallmentCount = 3
	installments.TotalValue = amt("100")
	bill, err = bills.Create(ctx, user.ID, installments)
	require.NoError(t, err)
	assert.Equal(t, "33.33", bill.InstallmentValue.StringFixed(2))
}

func TestBills_CreateValidation(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	bills := NewBillService(db, nil)
	bills.now = clock.Now

	tests := []struct {
		name   string
		mutate func(r *models.CreateBillRequest)
		field  string
	}{
		{"blank title", func(r *models.CreateBillRequest) { r.Title = "" }, "title"},
		{"zero value", func(r *models.CreateBillRequest) { r.TotalValue = amt("0") }, "total_value"},
		{"missing due date", func(r *models.CreateBillRequest) { r.DueDate = models.Date{} }, "due_date"},
		{"due yesterday", func(r *models.CreateBillRequest) { r.DueDate = models.NewDate(2024, time.March, 9) }, "due_date"},
		{"due too far", func(r *models.CreateBillRequest) { r.DueDate = models.NewDate(2034, time.March, 11) }, "due_date"},
		{"single installment", func(r *models.CreateBillRequest) {
			r.IsInstallment = true
			r.InstallmentCount = 1
		}, "installment_count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := billRequest(models.NewDate(2024, time.March, 20))
			tt.mutate(&req)
			_, err := bills.Create(ctx, user.ID, req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBills_UpdatePayment(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	bills := NewBillService(db, nil)
	bills.now = clock.Now

	bill, err := bills.Create(ctx, user.ID, billRequest(models.NewDate(2024, time.March, 20)))
	require.NoError(t, err)

	update := models.UpdateBillRequest{
		Title:      "Internet",
		TotalValue: amt("300"),
		DueDate:    models.NewDate(2024, time.March, 20),
		Paid:       true,
	}

	// Paid without a date means paid today.
	require.NoError(t, bills.Update(ctx, user.ID, bill.ID, update))
	list, err := bills.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].PaymentDate)
	assert.Equal(t, "2024-03-10", list[0].PaymentDate.String())
	assert.True(t, list[0].Paid)

	future := models.NewDate(2024, time.March, 11)
	update.PaymentDate = &future
	err = bills.Update(ctx, user.ID, bill.ID, update)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_date", verr.Field)

	past := models.NewDate(2024, time.March, 1)
	update.PaymentDate = &past
	require.NoError(t, bills.Update(ctx, user.ID, bill.ID, update))
	list, err = bills.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", list[0].PaymentDate.String())

	// Unpaid clears the payment date.
	update.Paid = false
	require.NoError(t, bills.Update(ctx, user.ID, bill.ID, update))
	list, err = bills.List(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, list[0].Paid)
	assert.Nil(t, list[0].PaymentDate)
}

func TestBills_UpdateKeepsPastDueDate(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	user := createUser(t, users, "ana@example.com", "")
	bills := NewBillService(db, nil)
	bills.now = clock.Now

	bill, err := bills.Create(ctx, user.ID, billRequest(models.NewDate(2024, time.March, 12)))
	require.NoError(t, err)

	clock.Advance(5 * 24 * time.Hour) // 2024-03-15

	list, err := bills.List(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, list[0].Overdue)
	assert.Equal(t, -3, list[0].DaysRemaining)

	// An overdue bill can still be edited without moving its due date.
	update := models.UpdateBillRequest{
		Title:      "Internet (late)",
		TotalValue: amt("310"),
		DueDate:    models.NewDate(2024, time.March, 12),
	}
	require.NoError(t, bills.Update(ctx, user.ID, bill.ID, update))

	update.DueDate = models.NewDate(2024, time.March, 11)
	err = bills.Update(ctx, user.ID, bill.ID, update)
	assert.ErrorIs(t, err, ErrValidation)

	update.Paid = true
	update.DueDate = models.NewDate(2024, time.March, 12)
	require.NoError(t, bills.Update(ctx, user.ID, bill.ID, update))
	list, err = bills.List(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, list[0].Overdue, "paid bills are never overdue")
}

func TestBills_OwnerScoped(t *testing.T) {
	db, clock, users := setup(t)
	ctx := context.Background()
	ana := createUser(t, users, "ana@example.com", "")
	bia := createUser(t, users, "bia@example.com", "")
	bills := NewBillService(db, nil)
	bills.now = clock.Now

	bill, err := bills.Create(ctx, ana.ID, billRequest(models.NewDate(2024, time.March, 20)))
	require.NoError(t, err)

	err = bills.Update(ctx, bia.ID, bill.ID, models.UpdateBillRequest{
		Title: "x", TotalValue: amt("1"), DueDate: models.NewDate(2024, time.March, 20),
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, bills.Delete(ctx, bia.ID, bill.ID), storage.ErrNotFound)
	require.NoError(t, bills.Delete(ctx, ana.ID, bill.ID))
}

func TestFixedAccounts_CRUD(t *testing.T) {
	db, _, users := setup(t)
	ctx := context.Background()
	ana := createUser(t, users, "ana@example.com", "")
	bia := createUser(t, users, "bia@example.com", "")
	notifier := &recordingNotifier{}
	fixed := NewFixedAccountService(db, notifier)

	_, err := fixed.Create(ctx, ana.ID, models.FixedAccountRequest{Title: " ", MonthlyValue: amt("10")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = fixed.Create(ctx, ana.ID, models.FixedAccountRequest{Title: "Gym", MonthlyValue: amt("0")})
	assert.ErrorIs(t, err, ErrValidation)

	rent, err := fixed.Create(ctx, ana.ID, models.FixedAccountRequest{Title: " Rent ", MonthlyValue: amt("1200")})
	require.NoError(t, err)
	assert.Equal(t, "Rent", rent.Title)
	_, err = fixed.Create(ctx, ana.ID, models.FixedAccountRequest{Title: "Gym", MonthlyValue: amt("99.9")})
	require.NoError(t, err)

	require.NoError(t, fixed.Update(ctx, ana.ID, rent.ID, models.FixedAccountRequest{Title: "Rent", MonthlyValue: amt("1250")}))
	assert.ErrorIs(t, fixed.Update(ctx, bia.ID, rent.ID, models.FixedAccountRequest{Title: "Rent", MonthlyValue: amt("1")}), storage.ErrNotFound)

	list, err := fixed.List(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1250.00", list[0].MonthlyValue.StringFixed(2))
	assert.Equal(t, "99.90", list[1].MonthlyValue.StringFixed(2))

	require.NoError(t, fixed.Delete(ctx, ana.ID, rent.ID))
	assert.ErrorIs(t, fixed.Delete(ctx, ana.ID, rent.ID), storage.ErrNotFound)
	assert.Len(t, notifier.Events(), 4)
}
