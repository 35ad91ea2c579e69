package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bankapp/internal/models"
	"bankapp/internal/storage"
)

// Store is the gorm/Postgres implementation of storage.Ledger. Every mutating
// unit of work runs inside a database transaction and takes SELECT ... FOR
// UPDATE locks on the account rows it touches, so two concurrent withdrawals
// cannot both read the same balance before either commits.
type Store struct {
	db *gorm.DB
}

// InitDB opens the database and migrates the schema.
func InitDB(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&models.Account{}, &models.Transaction{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
}

type gormTx struct {
	tx *gorm.DB
}

func (g *gormTx) AccountForUpdate(id uint) (*models.Account, error) {
	var a models.Account
	err := g.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (g *gormTx) AccountByUsernameForUpdate(username string) (*models.Account, error) {
	var a models.Account
	err := g.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("username = ? AND is_active", username).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (g *gormTx) SaveAccount(a *models.Account) error {
	return g.tx.Save(a).Error
}

func (g *gormTx) AppendTransaction(t *models.Transaction) error {
	return g.tx.Create(t).Error
}

func (s *Store) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) Transactions(ctx context.Context, accountID uint, offset, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AllTransactions(ctx context.Context, accountID uint) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).Count(&n).Error
	return n, err
}
