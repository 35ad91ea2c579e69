package storage

import (
	"context"
	"errors"

	"bankapp/internal/models"
)

// ErrNotFound is returned when no active account matches a lookup.
var ErrNotFound = errors.New("record not found")

// Tx is the view of the ledger inside one atomic unit of work. Account
// lookups hold a write lock on the matched row until the unit of work ends,
// so a balance read inside Atomic stays valid for the following save.
type Tx interface {
	AccountForUpdate(id uint) (*models.Account, error)
	AccountByUsernameForUpdate(username string) (*models.Account, error)
	SaveAccount(a *models.Account) error
	AppendTransaction(t *models.Transaction) error
}

// Ledger is the data-access layer for accounts and transactions.
//
// Atomic runs fn in a single unit of work: either every write made through
// the Tx commits, or none does. Transactions returns entries newest-first,
// already offset/limited. AllTransactions returns the complete history for
// summary aggregation.
type Ledger interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	AccountByID(ctx context.Context, id uint) (*models.Account, error)
	Transactions(ctx context.Context, accountID uint, offset, limit int) ([]models.Transaction, error)
	AllTransactions(ctx context.Context, accountID uint) ([]models.Transaction, error)
	CreateAccount(ctx context.Context, a *models.Account) error
	CountAccounts(ctx context.Context) (int64, error)
}
