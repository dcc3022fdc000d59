package round

import "context"

// Wallet is the ledger surface the games need. *ledger.Ledger satisfies it.
type Wallet interface {
	Balance() int64
	Debit(ctx context.Context, amount int64, ref string) int64
	Credit(ctx context.Context, amount int64, ref string) int64
}
