package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"bankapp/internal/handlers"
	"bankapp/internal/services"
	"bankapp/internal/storage"
	"bankapp/pkg/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Monetary amounts go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	var (
		ledger storage.Ledger
		err    error
	)
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		ledger, err = database.InitDB(dsn)
		if err != nil {
			log.Fatalf("database init failed: %v", err)
		}
	} else {
		log.Println("DB_DSN not set, running demo mode on the in-memory ledger")
		ledger = storage.NewMemory()
	}

	if err := database.Seed(context.Background(), ledger); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	var (
		accountService     = services.NewAccountService(ledger)
		transactionService = services.NewTransactionService(ledger)
	)

	h := handlers.NewHandler(accountService, transactionService)

	app := fiber.New(fiber.Config{
		ErrorHandler: h.ErrorHandler,
	})

	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Use(recover.New())
	app.Use(logger.New())

	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Get("/account", h.GetAccount)
	api.Get("/account/summary", h.GetSummary)
	api.Get("/transactions", h.ListTransactions)
	api.Post("/account/deposit", h.Deposit)
	api.Post("/account/withdraw", h.Withdraw)
	api.Post("/account/transfer", h.Transfer)
	api.Post("/account/loan", h.RequestLoan)
	api.Post("/account/close", h.CloseAccount)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Printf("Server listening on port %s", port)
	log.Fatal(app.Listen(":" + port))
}
