package wallet

import (
	"embed"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Static mock data served when the backend is unreachable, the wallet-side
// analogue of a bundled /api/*.json fixture. Only read-only views fall back
// to it; mutations never do.
//
//go:embed fixtures/wallet.json fixtures/transactions.json
var fixturesFS embed.FS

type fixtureWallet struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

func loadFixtureWallet() (fixtureWallet, error) {
	var w fixtureWallet
	data, err := fixturesFS.ReadFile("fixtures/wallet.json")
	if err != nil {
		return w, err
	}
	err = json.Unmarshal(data, &w)
	return w, err
}

func loadFixtureTransactions() ([]Transaction, error) {
	data, err := fixturesFS.ReadFile("fixtures/transactions.json")
	if err != nil {
		return nil, err
	}
	var out []Transaction
	err = json.Unmarshal(data, &out)
	return out, err
}
