package services

import "context"

// ChangeNotifier is told about every committed ledger write.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, userID int64, entity string)
}

// Notifiers fans one change out to several listeners (summary cache, sockets).
type Notifiers []ChangeNotifier

func (n Notifiers) LedgerChanged(ctx context.Context, userID int64, entity string) {
	for _, l := range n {
		if l != nil {
			l.LedgerChanged(ctx, userID, entity)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) LedgerChanged(context.Context, int64, string) {}

func notifierOrNop(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
