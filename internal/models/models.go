package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry. Values match the wire format
// returned by the transactions endpoint.
type TransactionType string

const (
	TypeDeposit     TransactionType = "DEPOSIT"
	TypeWithdrawal  TransactionType = "WITHDRAWAL"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
	TypeLoan        TransactionType = "LOAN"
	TypeInterest    TransactionType = "INTEREST"
)

// Inflow reports whether entries of this type increase the balance.
func (t TransactionType) Inflow() bool {
	switch t {
	case TypeDeposit, TypeTransferIn, TypeLoan, TypeInterest:
		return true
	}
	return false
}

// Account is the authoritative account record. The PIN is stored as a bcrypt
// hash and never serialized. Closed accounts keep their row (IsActive false).
type Account struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Username  string          `gorm:"uniqueIndex;not null" json:"username"`
	FirstName string          `gorm:"not null" json:"firstName"`
	LastName  string          `gorm:"not null" json:"lastName"`
	Balance   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
	PinHash   string          `gorm:"not null" json:"-"`
	CreatedAt time.Time       `gorm:"not null" json:"createdAt"`
	IsActive  bool            `gorm:"not null;default:true" json:"-"`
}

// Transaction is an immutable ledger entry. Amount is signed: positive for
// inflows, negative for withdrawals and outgoing transfers. Rows are only
// appended, never updated or deleted.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	AccountID   uint            `gorm:"index;not null" json:"-"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Description string          `gorm:"not null" json:"description"`
	Recipient   string          `json:"recipient,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"createdAt"`
}

// Summary aggregates an account's full transaction history.
type Summary struct {
	TotalIn  decimal.Decimal `json:"totalIn"`
	TotalOut decimal.Decimal `json:"totalOut"`
	Interest decimal.Decimal `json:"interest"`
}

// Request payloads.

type DepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type WithdrawRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	WithdrawalMethod string          `json:"withdrawalMethod"`
}

type TransferRequest struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
}

type LoanRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CloseAccountRequest struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}
