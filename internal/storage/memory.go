package storage

import (
	"context"
	"sort"
	"sync"

	"bankapp/internal/models"
)

// Memory is an in-process Ledger used for demo mode (no DB_DSN configured)
// and for tests. A single mutex serializes every unit of work, which makes
// each Atomic call trivially isolated.
type Memory struct {
	mu           sync.Mutex
	nextAccount  uint
	nextTxn      uint
	accounts     map[uint]*models.Account
	transactions []models.Transaction
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[uint]*models.Account)}
}

// memTx stages writes so a failed unit of work leaves the store untouched.
type memTx struct {
	m        *Memory
	saved    map[uint]*models.Account
	appended []models.Transaction
}

func (m *Memory) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m, saved: make(map[uint]*models.Account)}
	if err := fn(tx); err != nil {
		return err
	}

	for id, a := range tx.saved {
		cp := *a
		m.accounts[id] = &cp
	}
	for _, t := range tx.appended {
		m.nextTxn++
		t.ID = m.nextTxn
		m.transactions = append(m.transactions, t)
	}
	return nil
}

func (tx *memTx) AccountForUpdate(id uint) (*models.Account, error) {
	if a, ok := tx.saved[id]; ok {
		return a, nil
	}
	a, ok := tx.m.accounts[id]
	if !ok || !a.IsActive {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (tx *memTx) AccountByUsernameForUpdate(username string) (*models.Account, error) {
	for _, a := range tx.saved {
		if a.Username == username {
			return a, nil
		}
	}
	for _, a := range tx.m.accounts {
		if a.Username == username && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) SaveAccount(a *models.Account) error {
	tx.saved[a.ID] = a
	return nil
}

func (tx *memTx) AppendTransaction(t *models.Transaction) error {
	tx.appended = append(tx.appended, *t)
	return nil
}

func (m *Memory) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || !a.IsActive {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) Transactions(ctx context.Context, accountID uint, offset, limit int) ([]models.Transaction, error) {
	all, err := m.AllTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return []models.Transaction{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *Memory) AllTransactions(ctx context.Context, accountID uint) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAccount++
	a.ID = m.nextAccount
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *Memory) CountAccounts(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.accounts)), nil
}
