package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates ledger mutations.
type TransactionType string

const (
	TxDebit  TransactionType = "debit"
	TxCredit TransactionType = "credit"
	TxReset  TransactionType = "reset"
)

// Transaction is an append-only ledger journal entry.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	SessionID    string          `json:"session_id"`
	Type         TransactionType `json:"type"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	Reference    string          `json:"reference,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
