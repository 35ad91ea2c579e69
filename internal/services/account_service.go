package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bankapp/internal/models"
	"bankapp/internal/storage"
	"bankapp/pkg/utils"
)

// loanCap is the fraction of the current balance a loan may not exceed.
var loanCap = decimal.NewFromFloat(0.1)

// AccountService owns the account-mutation workflow. Every operation requires
// the target account to exist and be active; every mutation updates the
// balance and appends its ledger entry in one atomic unit of work.
type AccountService interface {
	GetAccount(ctx context.Context, id uint) (*models.Account, error)
	GetSummary(ctx context.Context, id uint) (models.Summary, error)
	Deposit(ctx context.Context, id uint, amount decimal.Decimal, paymentMethod string) (decimal.Decimal, error)
	Withdraw(ctx context.Context, id uint, amount decimal.Decimal, withdrawalMethod string) (decimal.Decimal, error)
	Transfer(ctx context.Context, fromID uint, toUsername string, amount decimal.Decimal) error
	RequestLoan(ctx context.Context, id uint, amount decimal.Decimal) error
	CloseAccount(ctx context.Context, id uint, username, pin string) error
	CreateAccount(ctx context.Context, username, firstName, lastName, pin string, balance decimal.Decimal) (*models.Account, error)
}

type accountService struct {
	ledger storage.Ledger
	now    func() time.Time
}

// NewAccountService creates a new AccountService backed by the given ledger.
func NewAccountService(ledger storage.Ledger) AccountService {
	return &accountService{
		ledger: ledger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetAccount retrieves the current snapshot of an active account.
func (s *accountService) GetAccount(ctx context.Context, id uint) (*models.Account, error) {
	a, err := s.ledger.AccountByID(ctx, id)
	if err != nil {
		return nil, accountLookupErr(err)
	}
	return a, nil
}

// GetSummary aggregates the full transaction history on demand. There is no
// materialized running total; an account without transactions yields zeros.
func (s *accountService) GetSummary(ctx context.Context, id uint) (models.Summary, error) {
	transactions, err := s.ledger.AllTransactions(ctx, id)
	if err != nil {
		return models.Summary{}, &Error{Kind: KindInternal, Message: "Failed to load transactions", Details: err.Error(), Err: err}
	}

	summary := models.Summary{
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
		Interest: decimal.Zero,
	}
	for _, t := range transactions {
		if t.Type.Inflow() {
			summary.TotalIn = summary.TotalIn.Add(t.Amount)
		} else {
			summary.TotalOut = summary.TotalOut.Add(t.Amount.Abs())
		}
		if t.Type == models.TypeInterest {
			summary.Interest = summary.Interest.Add(t.Amount)
		}
	}
	return summary, nil
}

// Deposit credits the account and appends a DEPOSIT entry. Returns the new
// balance.
func (s *accountService) Deposit(ctx context.Context, id uint, amount decimal.Decimal, paymentMethod string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, &Error{Kind: KindValidation, Message: "Invalid deposit amount", Details: "amount must be positive"}
	}

	var newBalance decimal.Decimal
	err := s.ledger.Atomic(ctx, func(tx storage.Tx) error {
		a, err := tx.AccountForUpdate(id)
		if err != nil {
			return accountLookupErr(err)
		}

		a.Balance = a.Balance.Add(amount)
		if err := tx.SaveAccount(a); err != nil {
			return saveErr(err)
		}
		if err := tx.AppendTransaction(&models.Transaction{
			AccountID:   id,
			Type:        models.TypeDeposit,
			Amount:      amount,
			Description: fmt.Sprintf("Deposit via %s", paymentMethod),
			CreatedAt:   s.now(),
		}); err != nil {
			return appendErr(err)
		}
		newBalance = a.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// Withdraw debits the account and appends a WITHDRAWAL entry with a negative
// amount. Returns the new balance.
func (s *accountService) Withdraw(ctx context.Context, id uint, amount decimal.Decimal, withdrawalMethod string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, &Error{Kind: KindValidation, Message: "Invalid withdrawal amount", Details: "amount must be positive"}
	}

	var newBalance decimal.Decimal
	err := s.ledger.Atomic(ctx, func(tx storage.Tx) error {
		a, err := tx.AccountForUpdate(id)
		if err != nil {
			return accountLookupErr(err)
		}
		if a.Balance.LessThan(amount) {
			return &Error{
				Kind:    KindDenied,
				Message: "Insufficient funds",
				Details: fmt.Sprintf("balance: %s, requested: %s", a.Balance, amount),
			}
		}

		a.Balance = a.Balance.Sub(amount)
		if err := tx.SaveAccount(a); err != nil {
			return saveErr(err)
		}
		if err := tx.AppendTransaction(&models.Transaction{
			AccountID:   id,
			Type:        models.TypeWithdrawal,
			Amount:      amount.Neg(),
			Description: fmt.Sprintf("Withdrawal to %s", withdrawalMethod),
			CreatedAt:   s.now(),
		}); err != nil {
			return appendErr(err)
		}
		newBalance = a.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// Transfer moves amount from the sender to the account owning toUsername.
// Both balance updates and both ledger entries commit in the same unit of
// work; no state with only one side applied is ever visible. The sender row
// is locked before the recipient row.
func (s *accountService) Transfer(ctx context.Context, fromID uint, toUsername string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &Error{Kind: KindValidation, Message: "Invalid transfer amount", Details: "amount must be positive"}
	}

	return s.ledger.Atomic(ctx, func(tx storage.Tx) error {
		from, err := tx.AccountForUpdate(fromID)
		if err != nil {
			return accountLookupErr(err)
		}
		if from.Username == toUsername {
			return &Error{Kind: KindValidation, Message: "Invalid transfer", Details: "sender and recipient must differ"}
		}
		if from.Balance.LessThan(amount) {
			return &Error{
				Kind:    KindDenied,
				Message: "Insufficient funds",
				Details: fmt.Sprintf("balance: %s, requested: %s", from.Balance, amount),
			}
		}

		to, err := tx.AccountByUsernameForUpdate(toUsername)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return &Error{Kind: KindDenied, Message: "Recipient not found", Details: fmt.Sprintf("username: %s", toUsername)}
			}
			return &Error{Kind: KindInternal, Message: "Failed to query recipient", Details: err.Error(), Err: err}
		}

		now := s.now()

		from.Balance = from.Balance.Sub(amount)
		if err := tx.SaveAccount(from); err != nil {
			return saveErr(err)
		}
		if err := tx.AppendTransaction(&models.Transaction{
			AccountID:   from.ID,
			Type:        models.TypeTransferOut,
			Amount:      amount.Neg(),
			Description: fmt.Sprintf("Transfer to %s", toUsername),
			Recipient:   toUsername,
			CreatedAt:   now,
		}); err != nil {
			return appendErr(err)
		}

		to.Balance = to.Balance.Add(amount)
		if err := tx.SaveAccount(to); err != nil {
			return saveErr(err)
		}
		if err := tx.AppendTransaction(&models.Transaction{
			AccountID:   to.ID,
			Type:        models.TypeTransferIn,
			Amount:      amount,
			Description: fmt.Sprintf("Transfer from %s", from.Username),
			Recipient:   from.Username,
			CreatedAt:   now,
		}); err != nil {
			return appendErr(err)
		}
		return nil
	})
}

// RequestLoan approves a loan only when the amount is at most 10% of the
// current balance, then credits the account and appends a LOAN entry.
func (s *accountService) RequestLoan(ctx context.Context, id uint, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &Error{Kind: KindValidation, Message: "Invalid loan amount", Details: "amount must be positive"}
	}

	return s.ledger.Atomic(ctx, func(tx storage.Tx) error {
		a, err := tx.AccountForUpdate(id)
		if err != nil {
			return accountLookupErr(err)
		}
		if amount.GreaterThan(a.Balance.Mul(loanCap)) {
			return &Error{
				Kind:    KindDenied,
				Message: "Loan request denied",
				Details: fmt.Sprintf("requested %s exceeds 10%% of balance %s", amount, a.Balance),
			}
		}

		a.Balance = a.Balance.Add(amount)
		if err := tx.SaveAccount(a); err != nil {
			return saveErr(err)
		}
		if err := tx.AppendTransaction(&models.Transaction{
			AccountID:   id,
			Type:        models.TypeLoan,
			Amount:      amount,
			Description: "Loan approved",
			CreatedAt:   s.now(),
		}); err != nil {
			return appendErr(err)
		}
		return nil
	})
}

// CloseAccount soft-deletes the account after verifying the supplied
// username and PIN. Balance and history are retained, but the account
// becomes invisible to every other operation.
func (s *accountService) CloseAccount(ctx context.Context, id uint, username, pin string) error {
	return s.ledger.Atomic(ctx, func(tx storage.Tx) error {
		a, err := tx.AccountForUpdate(id)
		if err != nil {
			return accountLookupErr(err)
		}
		if a.Username != username || !utils.CheckPin(a.PinHash, pin) {
			return &Error{Kind: KindDenied, Message: "Account closure failed", Details: "username or PIN mismatch"}
		}

		a.IsActive = false
		return tx.SaveAccount(a)
	})
}

// CreateAccount opens a new account. Used by seeding; the demo app has no
// public signup endpoint.
func (s *accountService) CreateAccount(ctx context.Context, username, firstName, lastName, pin string, balance decimal.Decimal) (*models.Account, error) {
	if balance.IsNegative() {
		return nil, &Error{Kind: KindValidation, Message: "Invalid opening balance", Details: "balance cannot be negative"}
	}
	pinHash, err := utils.HashPin(pin)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Failed to hash PIN", Details: err.Error(), Err: err}
	}

	a := &models.Account{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Balance:   balance,
		PinHash:   pinHash,
		CreatedAt: s.now(),
		IsActive:  true,
	}
	if err := s.ledger.CreateAccount(ctx, a); err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Failed to create account", Details: err.Error(), Err: err}
	}
	return a, nil
}

func accountLookupErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: "Account not found", Details: "no active account matches the id"}
	}
	return &Error{Kind: KindInternal, Message: "Failed to query account", Details: err.Error(), Err: err}
}

func saveErr(err error) error {
	return &Error{Kind: KindInternal, Message: "Failed to update account balance", Details: err.Error(), Err: err}
}

func appendErr(err error) error {
	return &Error{Kind: KindInternal, Message: "Failed to insert transaction record", Details: err.Error(), Err: err}
}
