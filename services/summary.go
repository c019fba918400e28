package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LovationAdmin/financas-api/cache"
	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	MinSummaryYear = 2000
	MaxSummaryYear = 2100
)

// SummaryService computes the monthly remaining-budget view and caches it
// per user until one of their ledger rows changes.
type SummaryService struct {
	db    *storage.Gateway
	cache cache.Cache[models.MonthlySummary]
	now   func() time.Time

	// generations counts ledger changes per user. A summary computed across a
	// change is returned but not cached.
	mu          sync.Mutex
	generations map[int64]uint64
}

func NewSummaryService(db *storage.Gateway, c cache.Cache[models.MonthlySummary]) *SummaryService {
	return &SummaryService{db: db, cache: c, now: time.Now, generations: make(map[int64]uint64)}
}

func (s *SummaryService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

func summaryKeyPrefix(userID int64) string {
	return fmt.Sprintf("summary:%d:", userID)
}

func summaryKey(userID int64, year, month int) string {
	return fmt.Sprintf("%s%d:%d", summaryKeyPrefix(userID), year, month)
}

// LedgerChanged drops every cached month of the user.
func (s *SummaryService) LedgerChanged(_ context.Context, userID int64, _ string) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.DeletePrefix(summaryKeyPrefix(userID))
	}
}

// Monthly returns the summary for month/year; zero values default to the
// current month and year. refresh skips the cache.
func (s *SummaryService) Monthly(ctx context.Context, userID int64, month, year int, refresh bool) (*models.MonthlySummary, error) {
	now := s.now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, invalid("month", "must be between 1 and 12")
	}
	if year < MinSummaryYear || year > MaxSummaryYear {
		return nil, invalid("year", "must be between %d and %d", MinSummaryYear, MaxSummaryYear)
	}

	key := summaryKey(userID, year, month)
	gen := s.generation(userID)
	if !refresh && s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return &cached, nil
		}
	}

	summary, err := s.compute(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.generation(userID) == gen {
		s.cache.Set(key, *summary)
	}
	return summary, nil
}

func (s *SummaryService) compute(ctx context.Context, userID int64, month, year int) (*models.MonthlySummary, error) {
	summary := &models.MonthlySummary{
		Month:      month,
		Year:       year,
		Income:     decimal.Zero,
		CardSpend:  decimal.Zero,
		BillSpend:  decimal.Zero,
		FixedSpend: decimal.Zero,
	}

	hasRows, err := s.hasLedgerRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasRows {
		summary.Finalize()
		return summary, nil
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.sum(gctx, &summary.Income,
			`SELECT COALESCE(SUM(valor), 0) FROM renda WHERE user_id = $1`, userID)
	})
	g.Go(func() error {
		return s.sum(gctx, &summary.CardSpend, `
			SELECT COALESCE(SUM(valor_parcela), 0) FROM cartoes_credito
			WHERE usuario_id = $1 AND dia_vencimento >= $2 AND dia_vencimento < $3`,
			userID, start, end)
	})
	g.Go(func() error {
		// Unpaid bills have no payment date and never match.
		return s.sum(gctx, &summary.BillSpend, `
			SELECT COALESCE(SUM(valor_total), 0) FROM boletos
			WHERE usuario_id = $1 AND data_pagamento >= $2 AND data_pagamento < $3`,
			userID, start, end)
	})
	g.Go(func() error {
		return s.sum(gctx, &summary.FixedSpend,
			`SELECT COALESCE(SUM(valor_total), 0) FROM contas_fixas WHERE usuario_id = $1`, userID)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Finalize()
	return summary, nil
}

func (s *SummaryService) sum(ctx context.Context, dst *decimal.Decimal, query string, args ...any) error {
	var total decimal.Decimal
	if err := s.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return fmt.Errorf("sum: %w", err)
	}
	*dst = money(total)
	return nil
}

// hasLedgerRows reports whether the user has anything in the four ledger tables.
func (s *SummaryService) hasLedgerRows(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM renda WHERE user_id = $1)
		     + (SELECT COUNT(*) FROM cartoes_credito WHERE usuario_id = $1)
		     + (SELECT COUNT(*) FROM boletos WHERE usuario_id = $1)
		     + (SELECT COUNT(*) FROM contas_fixas WHERE usuario_id = $1)`,
		userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count ledger rows: %w", err)
	}
	return count > 0, nil
}
