package models

import "github.com/shopspring/decimal"

const (
	StatusWithinBudget = "within_budget"
	StatusOverBudget   = "over_budget"
	StatusBalanced     = "balanced"
)

// MonthlySummary is the remaining-budget view for one user and month.
type MonthlySummary struct {
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Income     decimal.Decimal `json:"income"`
	CardSpend  decimal.Decimal `json:"card_spend"`
	BillSpend  decimal.Decimal `json:"bill_spend"`
	FixedSpend decimal.Decimal `json:"fixed_spend"`
	TotalSpend decimal.Decimal `json:"total_spend"`
	Remaining  decimal.Decimal `json:"remaining"`
	Status     string          `json:"status"`
}

// Finalize derives total spend, remaining budget and status from the four sums.
func (s *MonthlySummary) Finalize() {
	s.TotalSpend = s.CardSpend.Add(s.BillSpend).Add(s.FixedSpend)
	s.Remaining = s.Income.Sub(s.TotalSpend)
	switch s.Remaining.Sign() {
	case 1:
		s.Status = StatusWithinBudget
	case -1:
		s.Status = StatusOverBudget
	default:
		s.Status = StatusBalanced
	}
}
