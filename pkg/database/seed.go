package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bankapp/internal/models"
	"bankapp/internal/storage"
	"bankapp/pkg/utils"
)

// Seed loads the demo dataset into an empty ledger: one primary account with
// a realistic transaction history and a second account for trying transfers.
// Seeding is skipped when any account already exists.
func Seed(ctx context.Context, ledger storage.Ledger) error {
	n, err := ledger.CountAccounts(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	pin1, err := utils.HashPin("1111")
	if err != nil {
		return err
	}
	pin2, err := utils.HashPin("2222")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	primary := &models.Account{
		Username:  "Fani",
		FirstName: "Fani",
		LastName:  "Keorapetse",
		Balance:   decimal.NewFromFloat(33952.59),
		PinHash:   pin1,
		CreatedAt: now,
		IsActive:  true,
	}
	if err := ledger.CreateAccount(ctx, primary); err != nil {
		return err
	}

	secondary := &models.Account{
		Username:  "testuser",
		FirstName: "Test",
		LastName:  "User",
		Balance:   decimal.NewFromFloat(1000.00),
		PinHash:   pin2,
		CreatedAt: now,
		IsActive:  true,
	}
	if err := ledger.CreateAccount(ctx, secondary); err != nil {
		return err
	}

	history := []models.Transaction{
		{Type: models.TypeDeposit, Amount: decimal.NewFromFloat(1000.00), Description: "Salary Payment", CreatedAt: today},
		{Type: models.TypeWithdrawal, Amount: decimal.NewFromFloat(-2400.00), Description: "ATM Withdrawal", CreatedAt: today.Add(-2 * time.Hour)},
		{Type: models.TypeDeposit, Amount: decimal.NewFromFloat(2000.00), Description: "Transfer In", CreatedAt: today.Add(-4 * time.Hour)},
		{Type: models.TypeDeposit, Amount: decimal.NewFromFloat(10000.00), Description: "Investment Return", CreatedAt: today.Add(-6 * time.Hour)},
		{Type: models.TypeWithdrawal, Amount: decimal.NewFromFloat(-2500.00), Description: "Online Purchase", CreatedAt: today.Add(-8 * time.Hour)},
		{Type: models.TypeDeposit, Amount: decimal.NewFromFloat(1300.00), Description: "Bonus Payment", CreatedAt: time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC)},
		{Type: models.TypeDeposit, Amount: decimal.NewFromFloat(79.97), Description: "Freelance Work", CreatedAt: time.Date(2020, 3, 8, 0, 0, 0, 0, time.UTC)},
		{Type: models.TypeInterest, Amount: decimal.NewFromFloat(479.46), Description: "Monthly Interest", CreatedAt: now.AddDate(0, 0, -5)},
	}

	return ledger.Atomic(ctx, func(tx storage.Tx) error {
		for i := range history {
			history[i].AccountID = primary.ID
			if err := tx.AppendTransaction(&history[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
