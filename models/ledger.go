package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Importance labels a credit-card charge.
const (
	ImportanceUnexpected  = "Imprevisto"
	ImportancePersonalUse = "Consumo próprio"
	ImportanceNecessary   = "Necessário"
	ImportanceLeisure     = "Lazer"
	ImportanceOther       = "Outros"
)

var Importances = []string{
	ImportanceUnexpected,
	ImportancePersonalUse,
	ImportanceNecessary,
	ImportanceLeisure,
	ImportanceOther,
}

func IsValidImportance(s string) bool {
	for _, imp := range Importances {
		if imp == s {
			return true
		}
	}
	return false
}

// ============================================================================
// INCOME
// ============================================================================

type Income struct {
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type IncomeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ============================================================================
// CREDIT CARD CHARGES
// ============================================================================

type CreditCardCharge struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"-"`
	AccountName      string          `json:"account_name"`
	InstallmentCount int             `json:"installment_count"`
	InstallmentValue decimal.Decimal `json:"installment_value"`
	Importance       string          `json:"importance"`
	DueDate          Date            `json:"due_date"`
	CreatedAt        time.Time       `json:"created_at"`
	Total            decimal.Decimal `json:"total"`
}

type CreditCardRequest struct {
	AccountName      string          `json:"account_name"`
	InstallmentCount int             `json:"installment_count"`
	InstallmentValue decimal.Decimal `json:"installment_value"`
	Importance       string          `json:"importance"`
	DueDate          Date            `json:"due_date"`
}

// ============================================================================
// BILLS (BOLETOS)
// ============================================================================

type Bill struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"-"`
	Title            string          `json:"title"`
	TotalValue       decimal.Decimal `json:"total_value"`
	DueDate          Date            `json:"due_date"`
	IsInstallment    bool            `json:"is_installment"`
	InstallmentCount int             `json:"installment_count"`
	Paid             bool            `json:"paid"`
	PaymentDate      *Date           `json:"payment_date"`
	InstallmentValue decimal.Decimal `json:"installment_value"`
	Overdue          bool            `json:"overdue"`
	DaysRemaining    int             `json:"days_remaining"`
}

type CreateBillRequest struct {
	Title            string          `json:"title"`
	TotalValue       decimal.Decimal `json:"total_value"`
	DueDate          Date            `json:"due_date"`
	IsInstallment    bool            `json:"is_installment"`
	InstallmentCount int             `json:"installment_count"`
}

type UpdateBillRequest struct {
	Title            string          `json:"title"`
	TotalValue       decimal.Decimal `json:"total_value"`
	DueDate          Date            `json:"due_date"`
	IsInstallment    bool            `json:"is_installment"`
	InstallmentCount int             `json:"installment_count"`
	Paid             bool            `json:"paid"`
	PaymentDate      *Date           `json:"payment_date"`
}

// ============================================================================
// FIXED ACCOUNTS
// ============================================================================

type FixedAccount struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"-"`
	Title        string          `json:"title"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
}

type FixedAccountRequest struct {
	Title        string          `json:"title"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
}

// ============================================================================
// LIVE UPDATES
// ============================================================================

// Entity names carried by ledger change events.
const (
	EntityIncome       = "income"
	EntityCreditCard   = "credit_card"
	EntityBill         = "bill"
	EntityFixedAccount = "fixed_account"
	EntityAccount      = "account"
)

type LedgerChangedEvent struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
}
