package services

import (
	"strings"
	"time"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/shopspring/decimal"
)

var minChargeValue = decimal.New(1, -2) // 0.01

// money rounds stored and summed amounts to cents. SQLite hands REAL values
// back as float64.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, "is required")
	}
	return value, nil
}

func requireAtLeast(field string, value, min decimal.Decimal) error {
	if value.LessThan(min) {
		return invalid(field, "must be at least %s", min.StringFixed(2))
	}
	return nil
}

func today(now func() time.Time) models.Date {
	return models.DateOf(now())
}
