package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bankapp/internal/models"
	"bankapp/pkg/utils"
)

// Data sources for the local mirror.
const (
	SourceBackend = "backend"
	SourceMock    = "mock"
)

// Store maintains the local mirror of the wallet balance and transaction
// history. Mutations are applied optimistically before the server confirms
// them and reconciled afterwards by Sync. A Store is an explicit object with
// a lifecycle: create it with NewStore, stop background work with Close.
type Store struct {
	client *Client

	mu           sync.Mutex
	balance      decimal.Decimal
	currency     string
	transactions []Transaction
	page         int
	pageSize     int
	hasMore      bool
	loadingMore  bool
	source       string
	depositBusy  bool
	withdrawBusy bool
	closed       bool

	// syncDelay is how long after a confirmed mutation the authoritative
	// re-sync runs.
	syncDelay time.Duration
	now       func() time.Time

	timersMu sync.Mutex
	timers   []*time.Timer
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewStore creates a Store over the given API client.
func NewStore(client *Client) *Store {
	return &Store{
		client:    client,
		currency:  "ZAR",
		page:      1,
		pageSize:  6,
		hasMore:   true,
		syncDelay: 2 * time.Second,
		now:       func() time.Time { return time.Now().UTC() },
		done:      make(chan struct{}),
	}
}

// Balance returns the local balance mirror.
func (s *Store) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// FormattedBalance renders the balance with its currency label.
func (s *Store) FormattedBalance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s %s", s.currency, s.balance.StringFixed(2))
}

// Transactions returns a copy of the local transaction list, newest first.
func (s *Store) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// HasMore reports whether another history page may exist on the server.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Source reports where the current mirror came from: backend, mock, or ""
// before the first successful load.
func (s *Store) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Deposit applies the credit optimistically, then confirms it with the
// server. On success the optimistic entry is removed (the authoritative row
// arrives via the delayed re-sync); on failure the balance adjustment is
// undone and the error returned.
func (s *Store) Deposit(ctx context.Context, amount decimal.Decimal, paymentMethod string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &Error{Kind: ErrValidation, Message: "Amount must be a positive number"}
	}

	s.mu.Lock()
	if s.depositBusy {
		s.mu.Unlock()
		return &Error{Kind: ErrValidation, Message: "A deposit is already in progress"}
	}
	s.depositBusy = true
	optimistic := Transaction{
		ID:          utils.NewOptimisticID(),
		Type:        TypeDeposit,
		Amount:      amount,
		Currency:    s.currency,
		Status:      StatusPending,
		Date:        s.now(),
		Description: fmt.Sprintf("Deposit via %s", paymentMethod),
	}
	s.transactions = append([]Transaction{optimistic}, s.transactions...)
	s.balance = s.balance.Add(amount)
	s.mu.Unlock()

	_, err := s.client.Deposit(ctx, amount, paymentMethod)

	s.mu.Lock()
	s.depositBusy = false
	s.removeLocked(optimistic.ID)
	if err != nil {
		s.balance = s.balance.Sub(amount)
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// Withdraw is the debit counterpart of Deposit, with a local insufficient-
// funds check before anything is touched.
func (s *Store) Withdraw(ctx context.Context, amount decimal.Decimal, withdrawalMethod string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &Error{Kind: ErrValidation, Message: "Amount must be a positive number"}
	}

	s.mu.Lock()
	if s.withdrawBusy {
		s.mu.Unlock()
		return &Error{Kind: ErrValidation, Message: "A withdrawal is already in progress"}
	}
	if s.balance.LessThan(amount) {
		s.mu.Unlock()
		return &Error{Kind: ErrInsufficientFunds, Message: "Insufficient funds"}
	}
	s.withdrawBusy = true
	optimistic := Transaction{
		ID:          utils.NewOptimisticID(),
		Type:        TypeWithdrawal,
		Amount:      amount,
		Currency:    s.currency,
		Status:      StatusPending,
		Date:        s.now(),
		Description: fmt.Sprintf("Withdrawal to %s", withdrawalMethod),
	}
	s.transactions = append([]Transaction{optimistic}, s.transactions...)
	s.balance = s.balance.Sub(amount)
	s.mu.Unlock()

	_, err := s.client.Withdraw(ctx, amount, withdrawalMethod)

	s.mu.Lock()
	s.withdrawBusy = false
	s.removeLocked(optimistic.ID)
	if err != nil {
		s.balance = s.balance.Add(amount)
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.scheduleSync()
	return nil
}

// Transfer, RequestLoan and CloseAccount have no optimistic local effect;
// they pass through to the server and schedule a re-sync on success.

func (s *Store) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	if err := s.client.Transfer(ctx, recipient, amount); err != nil {
		return err
	}
	s.scheduleSync()
	return nil
}

func (s *Store) RequestLoan(ctx context.Context, amount decimal.Decimal) error {
	if err := s.client.RequestLoan(ctx, amount); err != nil {
		return err
	}
	s.scheduleSync()
	return nil
}

func (s *Store) CloseAccount(ctx context.Context, username, pin string) error {
	return s.client.CloseAccount(ctx, username, pin)
}

// Summary fetches the authoritative account summary.
func (s *Store) Summary(ctx context.Context) (*models.Summary, error) {
	return s.client.Summary(ctx)
}

// Sync is the reconciliation pass: fetch the authoritative balance and the
// most recent transactions, overwrite the local balance when it drifted by
// more than epsilon, merge genuinely new rows, and purge stale optimistic
// entries. When the backend is unreachable and no authoritative data was
// ever loaded, the embedded mock fixtures serve the read-only views instead.
func (s *Store) Sync(ctx context.Context) error {
	account, err := s.client.Account(ctx)
	if err != nil {
		if IsNetworkError(err) {
			return s.loadFallback()
		}
		return err
	}
	incoming, err := s.client.Transactions(ctx, 1, s.currentPageSize())
	if err != nil {
		if IsNetworkError(err) {
			return s.loadFallback()
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if account.Balance.Sub(s.balance).Abs().GreaterThan(epsilon) {
		s.balance = account.Balance
	}

	rows := make([]Transaction, 0, len(incoming))
	for _, t := range incoming {
		rows = append(rows, FromServer(t, s.currency))
	}
	s.transactions = Merge(s.transactions, rows, s.now())
	if s.page == 1 {
		s.hasMore = len(incoming) == s.pageSize
	}
	s.source = SourceBackend
	return nil
}

// LoadMore fetches the next history page and appends only rows not already
// present. Overlapping calls are guarded by the loading flag; once a page
// comes back short there is nothing further to offer.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loadingMore || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.loadingMore = true
	next := s.page + 1
	size := s.pageSize
	s.mu.Unlock()

	incoming, err := s.client.Transactions(ctx, next, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false
	if err != nil {
		return err
	}

	rows := make([]Transaction, 0, len(incoming))
	for _, t := range incoming {
		rows = append(rows, FromServer(t, s.currency))
	}
	s.transactions = AppendNew(s.transactions, rows)
	s.page = next
	s.hasMore = len(incoming) == size
	return nil
}

// StartAutoSync runs Sync on a fixed interval until Close.
func (s *Store) StartAutoSync(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				_ = s.Sync(ctx)
				cancel()
			}
		}
	}()
}

// Close stops the auto-sync loop and any pending delayed re-syncs.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.timersMu.Lock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.timersMu.Unlock()
	s.wg.Wait()
}

// scheduleSync queues the delayed post-mutation reconciliation pass.
func (s *Store) scheduleSync() {
	t := time.AfterFunc(s.syncDelay, func() {
		select {
		case <-s.done:
			return
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Sync(ctx)
	})
	s.timersMu.Lock()
	s.timers = append(s.timers, t)
	s.timersMu.Unlock()
}

// loadFallback serves the embedded fixtures. Authoritative data already in
// the mirror is never overwritten by mock data.
func (s *Store) loadFallback() error {
	s.mu.Lock()
	if s.source == SourceBackend {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	w, err := loadFixtureWallet()
	if err != nil {
		return &Error{Kind: ErrService, Message: "mock wallet data unavailable", Details: err.Error()}
	}
	txns, err := loadFixtureTransactions()
	if err != nil {
		return &Error{Kind: ErrService, Message: "mock transaction data unavailable", Details: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = w.Balance
	s.currency = w.Currency
	s.transactions = txns
	s.hasMore = false
	s.source = SourceMock
	return nil
}

// removeLocked drops a transaction by id. Caller holds s.mu.
func (s *Store) removeLocked(id string) {
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return
		}
	}
}

func (s *Store) currentPageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}
