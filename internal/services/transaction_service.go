package services

import (
	"context"

	"bankapp/internal/models"
	"bankapp/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TransactionService reads the append-only transaction history.
type TransactionService interface {
	List(ctx context.Context, accountID uint, page, pageSize int) ([]models.Transaction, error)
}

type transactionService struct {
	ledger storage.Ledger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(ledger storage.Ledger) TransactionService {
	return &transactionService{ledger: ledger}
}

// List returns one page of the account's transactions, newest first.
// Page numbers start at 1; out-of-range values fall back to defaults.
func (s *transactionService) List(ctx context.Context, accountID uint, page, pageSize int) ([]models.Transaction, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	transactions, err := s.ledger.Transactions(ctx, accountID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Failed to load transactions", Details: err.Error(), Err: err}
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	return transactions, nil
}
