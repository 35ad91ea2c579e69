package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"bankapp/internal/wallet"
)

// Terminal client for the banking API. Runs one command against the wallet
// store, which falls back to the bundled mock data when the server is down.
func main() {
	_ = godotenv.Load()

	decimal.MarshalJSONWithoutQuotes = true

	apiURL := flag.String("api", envOr("API_URL", "http://localhost:3000/api"), "base URL of the banking API")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	store := wallet.NewStore(wallet.NewClient(*apiURL))
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Sync(ctx); err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	var err error
	switch args[0] {
	case "balance":
		fmt.Printf("%s (source: %s)\n", store.FormattedBalance(), store.Source())
	case "summary":
		summary, serr := store.Summary(ctx)
		if serr != nil {
			err = serr
			break
		}
		fmt.Printf("in: %s  out: %s  interest: %s\n", summary.TotalIn, summary.TotalOut, summary.Interest)
	case "transactions":
		for store.HasMore() {
			if err = store.LoadMore(ctx); err != nil {
				break
			}
		}
		for _, t := range store.Transactions() {
			fmt.Printf("%-12s %-12s %10s  %s\n", t.Date.Format("2006-01-02"), t.Type, t.Amount.StringFixed(2), t.Description)
		}
	case "deposit":
		amount, method := amountAndMethod(args, "Instant EFT")
		if err = store.Deposit(ctx, amount, method); err == nil {
			fmt.Printf("deposited, balance now %s\n", store.FormattedBalance())
		}
	case "withdraw":
		amount, method := amountAndMethod(args, "Bank Account")
		if err = store.Withdraw(ctx, amount, method); err == nil {
			fmt.Printf("withdrawn, balance now %s\n", store.FormattedBalance())
		}
	case "transfer":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		if err = store.Transfer(ctx, args[1], parseAmount(args[2])); err == nil {
			fmt.Println("transfer completed")
		}
	case "loan":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		if err = store.RequestLoan(ctx, parseAmount(args[1])); err == nil {
			fmt.Println("loan approved")
		}
	case "close":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		if err = store.CloseAccount(ctx, args[1], args[2]); err == nil {
			fmt.Println("account closed")
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", args[0], err)
	}
}

func amountAndMethod(args []string, defaultMethod string) (decimal.Decimal, string) {
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	method := defaultMethod
	if len(args) > 2 {
		method = args[2]
	}
	return parseAmount(args[1]), method
}

func parseAmount(s string) decimal.Decimal {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("invalid amount %q", s)
	}
	return amount
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: wallet [-api URL] command [args]

commands:
  balance
  summary
  transactions
  deposit  <amount> [method]
  withdraw <amount> [method]
  transfer <recipient> <amount>
  loan     <amount>
  close    <username> <pin>
`)
}
