package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankapp/internal/models"
	"bankapp/internal/storage"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// newFixture builds a memory-backed service with one open account.
func newFixture(t *testing.T, balance float64) (AccountService, storage.Ledger, *models.Account) {
	t.Helper()
	ledger := storage.NewMemory()
	svc := NewAccountService(ledger)
	a, err := svc.CreateAccount(context.Background(), "alice", "Alice", "Smith", "1111", dec(balance))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return svc, ledger, a
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("want *services.Error, got %v", err)
	}
	if svcErr.Kind != kind {
		t.Fatalf("kind=%d want=%d (err: %v)", svcErr.Kind, kind, err)
	}
}

func balanceOf(t *testing.T, svc AccountService, id uint) decimal.Decimal {
	t.Helper()
	a, err := svc.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccount(%d): %v", id, err)
	}
	return a.Balance
}

func historyOf(t *testing.T, ledger storage.Ledger, id uint) []models.Transaction {
	t.Helper()
	all, err := ledger.AllTransactions(context.Background(), id)
	if err != nil {
		t.Fatalf("AllTransactions(%d): %v", id, err)
	}
	return all
}

func TestDepositCreditsBalanceAndAppendsOneRow(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	newBalance, err := svc.Deposit(context.Background(), a.ID, dec(250), "Credit Card")
	if err != nil {
		t.Fatal(err)
	}
	if !newBalance.Equal(dec(1250)) {
		t.Fatalf("newBalance=%s want=1250", newBalance)
	}
	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(1250)) {
		t.Fatalf("balance=%s want=1250", got)
	}

	history := historyOf(t, ledger, a.ID)
	if len(history) != 1 {
		t.Fatalf("history len=%d want=1", len(history))
	}
	txn := history[0]
	if txn.Type != models.TypeDeposit || !txn.Amount.Equal(dec(250)) {
		t.Fatalf("txn=%+v want DEPOSIT 250", txn)
	}
	if txn.Description != "Deposit via Credit Card" {
		t.Fatalf("description=%q", txn.Description)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	for _, amount := range []decimal.Decimal{decimal.Zero, dec(-10)} {
		_, err := svc.Deposit(context.Background(), a.ID, amount, "Credit Card")
		wantKind(t, err, KindValidation)
	}
	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(1000)) {
		t.Fatalf("balance=%s want unchanged 1000", got)
	}
	if history := historyOf(t, ledger, a.ID); len(history) != 0 {
		t.Fatalf("history len=%d want=0", len(history))
	}
}

func TestWithdrawAppendsNegativeRow(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	newBalance, err := svc.Withdraw(context.Background(), a.ID, dec(300), "Bank Account")
	if err != nil {
		t.Fatal(err)
	}
	if !newBalance.Equal(dec(700)) {
		t.Fatalf("newBalance=%s want=700", newBalance)
	}

	history := historyOf(t, ledger, a.ID)
	if len(history) != 1 {
		t.Fatalf("history len=%d want=1", len(history))
	}
	txn := history[0]
	if txn.Type != models.TypeWithdrawal || !txn.Amount.Equal(dec(-300)) {
		t.Fatalf("txn=%+v want WITHDRAWAL -300", txn)
	}
	if txn.Description != "Withdrawal to Bank Account" {
		t.Fatalf("description=%q", txn.Description)
	}
}

func TestWithdrawInsufficientFundsLeavesStateUntouched(t *testing.T) {
	svc, ledger, a := newFixture(t, 100)

	_, err := svc.Withdraw(context.Background(), a.ID, dec(150), "Bank Account")
	wantKind(t, err, KindDenied)

	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(100)) {
		t.Fatalf("balance=%s want unchanged 100", got)
	}
	if history := historyOf(t, ledger, a.ID); len(history) != 0 {
		t.Fatalf("history len=%d want=0", len(history))
	}
}

func TestTransferMovesBothSidesAtomically(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)
	b, err := svc.CreateAccount(context.Background(), "bob", "Bob", "Jones", "2222", dec(500))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Transfer(context.Background(), a.ID, "bob", dec(200)); err != nil {
		t.Fatal(err)
	}

	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(800)) {
		t.Fatalf("sender balance=%s want=800", got)
	}
	if got := balanceOf(t, svc, b.ID); !got.Equal(dec(700)) {
		t.Fatalf("recipient balance=%s want=700", got)
	}

	out := historyOf(t, ledger, a.ID)
	if len(out) != 1 || out[0].Type != models.TypeTransferOut || !out[0].Amount.Equal(dec(-200)) {
		t.Fatalf("sender history=%+v want one TRANSFER_OUT -200", out)
	}
	if out[0].Recipient != "bob" {
		t.Fatalf("sender recipient=%q want=bob", out[0].Recipient)
	}

	in := historyOf(t, ledger, b.ID)
	if len(in) != 1 || in[0].Type != models.TypeTransferIn || !in[0].Amount.Equal(dec(200)) {
		t.Fatalf("recipient history=%+v want one TRANSFER_IN 200", in)
	}
	if in[0].Recipient != "alice" {
		t.Fatalf("recipient counterparty=%q want=alice", in[0].Recipient)
	}
}

func TestTransferFailuresLeaveSenderUntouched(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	tests := []struct {
		name      string
		recipient string
		amount    decimal.Decimal
		kind      Kind
	}{
		{"unknown recipient", "nobody", dec(200), KindDenied},
		{"insufficient funds", "bob", dec(5000), KindDenied},
		{"non-positive amount", "bob", decimal.Zero, KindValidation},
		{"self transfer", "alice", dec(10), KindValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Transfer(context.Background(), a.ID, tc.recipient, tc.amount)
			wantKind(t, err, tc.kind)
		})
	}

	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(1000)) {
		t.Fatalf("balance=%s want unchanged 1000", got)
	}
	if history := historyOf(t, ledger, a.ID); len(history) != 0 {
		t.Fatalf("history len=%d want=0", len(history))
	}
}

func TestLoanApprovedUpToTenPercentOfBalance(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	if err := svc.RequestLoan(context.Background(), a.ID, dec(90)); err != nil {
		t.Fatal(err)
	}
	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(1090)) {
		t.Fatalf("balance=%s want=1090", got)
	}
	history := historyOf(t, ledger, a.ID)
	if len(history) != 1 || history[0].Type != models.TypeLoan || !history[0].Amount.Equal(dec(90)) {
		t.Fatalf("history=%+v want one LOAN 90", history)
	}
}

func TestLoanDeniedAboveTenPercent(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	err := svc.RequestLoan(context.Background(), a.ID, dec(150))
	wantKind(t, err, KindDenied)

	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(1000)) {
		t.Fatalf("balance=%s want unchanged 1000", got)
	}
	if history := historyOf(t, ledger, a.ID); len(history) != 0 {
		t.Fatalf("history len=%d want=0", len(history))
	}
}

func TestCloseAccountRequiresExactCredentials(t *testing.T) {
	svc, _, a := newFixture(t, 1000)

	// Wrong PIN, then wrong username: account stays open.
	wantKind(t, svc.CloseAccount(context.Background(), a.ID, "alice", "9999"), KindDenied)
	wantKind(t, svc.CloseAccount(context.Background(), a.ID, "mallory", "1111"), KindDenied)
	if got := balanceOf(t, svc, a.ID); !got.Equal(dec(1000)) {
		t.Fatalf("balance=%s want unchanged 1000", got)
	}

	if err := svc.CloseAccount(context.Background(), a.ID, "alice", "1111"); err != nil {
		t.Fatal(err)
	}

	// Closed accounts are invisible to reads and mutations.
	_, err := svc.GetAccount(context.Background(), a.ID)
	wantKind(t, err, KindNotFound)
	_, err = svc.Deposit(context.Background(), a.ID, dec(100), "Credit Card")
	wantKind(t, err, KindNotFound)
}

func TestSummaryAggregatesFullHistory(t *testing.T) {
	svc, ledger, a := newFixture(t, 1000)

	now := time.Now().UTC()
	rows := []models.Transaction{
		{AccountID: a.ID, Type: models.TypeDeposit, Amount: dec(1000), Description: "Salary Payment", CreatedAt: now},
		{AccountID: a.ID, Type: models.TypeWithdrawal, Amount: dec(-2400), Description: "ATM Withdrawal", CreatedAt: now},
		{AccountID: a.ID, Type: models.TypeLoan, Amount: dec(300), Description: "Loan approved", CreatedAt: now},
		{AccountID: a.ID, Type: models.TypeInterest, Amount: dec(50), Description: "Monthly Interest", CreatedAt: now},
	}
	err := ledger.Atomic(context.Background(), func(tx storage.Tx) error {
		for i := range rows {
			if err := tx.AppendTransaction(&rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := svc.GetSummary(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.TotalIn.Equal(dec(1350)) {
		t.Fatalf("totalIn=%s want=1350", summary.TotalIn)
	}
	if !summary.TotalOut.Equal(dec(2400)) {
		t.Fatalf("totalOut=%s want=2400", summary.TotalOut)
	}
	if !summary.Interest.Equal(dec(50)) {
		t.Fatalf("interest=%s want=50", summary.Interest)
	}
}

func TestSummaryIsZeroWithoutTransactions(t *testing.T) {
	svc, _, a := newFixture(t, 1000)

	summary, err := svc.GetSummary(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.TotalIn.IsZero() || !summary.TotalOut.IsZero() || !summary.Interest.IsZero() {
		t.Fatalf("summary=%+v want zeros", summary)
	}
}

func TestGetAccountUnknownID(t *testing.T) {
	svc, _, _ := newFixture(t, 1000)
	_, err := svc.GetAccount(context.Background(), 999)
	wantKind(t, err, KindNotFound)
}
