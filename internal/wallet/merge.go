package wallet

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankapp/internal/models"
	"bankapp/pkg/utils"
)

// Status tracks a mirrored transaction through the optimistic-update state
// machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Mirror transaction types, lowercase without underscores.
const (
	TypeDeposit     = "deposit"
	TypeWithdrawal  = "withdrawal"
	TypeTransferIn  = "transferin"
	TypeTransferOut = "transferout"
	TypeLoan        = "loan"
	TypeInterest    = "interest"
)

// Reconciliation tuning. Epsilon absorbs fixed-point rounding when comparing
// amounts; dupWindow bounds how far apart an optimistic entry and its
// authoritative twin may be stamped; staleAge is the unconditional purge
// ceiling for optimistic entries that never got a server row.
var epsilon = decimal.NewFromFloat(0.01)

const (
	dupWindow = 2 * time.Minute
	staleAge  = 5 * time.Minute
)

// Transaction is the wallet-side mirror of a ledger entry. Amounts are
// absolute values; direction is carried by the type. Optimistic entries have
// a txn_-prefixed id and pending status until reconciled.
type Transaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Recipient   string          `json:"recipient,omitempty"`
}

// Optimistic reports whether the entry is locally synthesized and still
// unconfirmed.
func (t Transaction) Optimistic() bool {
	return utils.IsOptimisticID(t.ID) || t.Status == StatusPending
}

// NormalizeType converts a server transaction type to the mirror form, e.g.
// TRANSFER_IN -> transferin.
func NormalizeType(t models.TransactionType) string {
	return strings.ReplaceAll(strings.ToLower(string(t)), "_", "")
}

// FromServer converts an authoritative ledger entry to its mirror form.
func FromServer(t models.Transaction, currency string) Transaction {
	return Transaction{
		ID:          strconv.FormatUint(uint64(t.ID), 10),
		Type:        NormalizeType(t.Type),
		Amount:      t.Amount.Abs(),
		Currency:    currency,
		Status:      StatusSuccess,
		Date:        t.CreatedAt,
		Description: t.Description,
		Recipient:   t.Recipient,
	}
}

// IsDuplicate is the heuristic matcher for rows whose ids cannot line up
// (optimistic entries carry client-generated ids): same type, amounts within
// epsilon, stamped within dupWindow of each other, and descriptions that
// cross-reference each other's type keyword.
func IsDuplicate(a, b Transaction) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Amount.Sub(b.Amount).Abs().GreaterThan(epsilon) {
		return false
	}
	delta := a.Date.Sub(b.Date)
	if delta < 0 {
		delta = -delta
	}
	if delta > dupWindow {
		return false
	}
	return mentionsKeyword(a.Description, b.Type) && mentionsKeyword(b.Description, a.Type)
}

// mentionsKeyword checks that the description references the type keyword:
// "Deposit via Card" mentions deposit, both transfer directions share the
// "transfer" keyword.
func mentionsKeyword(description, typ string) bool {
	keyword := typ
	switch typ {
	case TypeTransferIn, TypeTransferOut:
		keyword = "transfer"
	}
	return strings.Contains(strings.ToLower(description), keyword)
}

// Merge reconciles the local mirror with a batch of authoritative server
// rows and returns the merged, deduplicated, newest-first list. It is a pure
// function over its inputs.
//
//   - A server row matching an existing id is already present and skipped.
//   - A server row that heuristically duplicates an optimistic entry replaces
//     it, so a confirmed mutation is never shown twice.
//   - A server row duplicating a settled entry is skipped.
//   - Optimistic entries older than staleAge are purged unconditionally: a
//     safety net for server rows that never arrive to replace them.
func Merge(local, incoming []Transaction, now time.Time) []Transaction {
	kept := make([]Transaction, 0, len(local))
	for _, t := range local {
		if t.Optimistic() && now.Sub(t.Date) > staleAge {
			continue
		}
		kept = append(kept, t)
	}

	byID := make(map[string]bool, len(kept))
	for _, t := range kept {
		byID[t.ID] = true
	}

	var fresh []Transaction
	for _, in := range incoming {
		if byID[in.ID] {
			continue
		}
		replaced := false
		duplicate := false
		for i, t := range kept {
			if !IsDuplicate(t, in) {
				continue
			}
			if t.Optimistic() {
				kept[i] = in
				byID[in.ID] = true
				replaced = true
			} else {
				duplicate = true
			}
			break
		}
		if replaced || duplicate {
			continue
		}
		byID[in.ID] = true
		fresh = append(fresh, in)
	}

	merged := append(fresh, kept...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}

// AppendNew appends only the incoming rows not already present, by id first
// and by the duplicate heuristic second. Used by pagination, where older
// pages must never reorder what is already shown.
func AppendNew(local, incoming []Transaction) []Transaction {
	byID := make(map[string]bool, len(local))
	for _, t := range local {
		byID[t.ID] = true
	}

	out := local
	for _, in := range incoming {
		if byID[in.ID] {
			continue
		}
		dup := false
		for _, t := range local {
			if IsDuplicate(t, in) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		byID[in.ID] = true
		out = append(out, in)
	}
	return out
}
