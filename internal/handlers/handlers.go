package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"bankapp/internal/models"
	"bankapp/internal/services"
)

// DefaultAccountID is the single demo account every request operates on.
const DefaultAccountID uint = 1

// Deposit and withdrawal bounds are currency-unit limits enforced at the
// boundary, not by the ledger.
var (
	minDeposit  = decimal.NewFromInt(10)
	maxDeposit  = decimal.NewFromInt(50000)
	minWithdraw = decimal.NewFromInt(50)
	maxAmount   = decimal.NewFromInt(1000000)
)

type Handler struct {
	accountService     services.AccountService
	transactionService services.TransactionService
}

func NewHandler(as services.AccountService, ts services.TransactionService) *Handler {
	return &Handler{
		accountService:     as,
		transactionService: ts,
	}
}

// ErrorHandler maps service error kinds to HTTP status codes. Internal
// faults keep their message but never leak details to the caller.
func (h *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	details := ""

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
		switch svcErr.Kind {
		case services.KindValidation, services.KindDenied:
			code = fiber.StatusBadRequest
			details = svcErr.Details
		case services.KindNotFound:
			code = fiber.StatusNotFound
			details = svcErr.Details
		default:
			log.Printf("internal error: %v", err)
		}
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("unhandled error: %v", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   message,
		"details": details,
	})
}

// Health reports service liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetAccount returns the demo account snapshot, 404 when it is missing or
// closed.
func (h *Handler) GetAccount(c *fiber.Ctx) error {
	account, err := h.accountService.GetAccount(c.Context(), DefaultAccountID)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// GetSummary aggregates the account's full history; zeros when empty.
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.accountService.GetSummary(c.Context(), DefaultAccountID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// ListTransactions returns one page of transactions, newest first.
func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", 20)

	transactions, err := h.transactionService.List(c.Context(), DefaultAccountID, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(transactions)
}

func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req models.DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request format", err.Error())
	}
	if err := validAmount(req.Amount); err != nil {
		return err
	}
	if req.Amount.LessThan(minDeposit) {
		return badRequest("Minimum deposit amount is R10", "")
	}
	if req.Amount.GreaterThan(maxDeposit) {
		return badRequest("Maximum deposit amount is R50,000", "")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return badRequest("Payment method is required", "")
	}

	newBalance, err := h.accountService.Deposit(c.Context(), DefaultAccountID, req.Amount, req.PaymentMethod)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":       "Deposit successful",
		"amount":        req.Amount,
		"paymentMethod": req.PaymentMethod,
		"newBalance":    newBalance,
	})
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req models.WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request format", err.Error())
	}
	if err := validAmount(req.Amount); err != nil {
		return err
	}
	if req.Amount.LessThan(minWithdraw) {
		return badRequest("Minimum withdrawal amount is R50", "")
	}
	if strings.TrimSpace(req.WithdrawalMethod) == "" {
		return badRequest("Withdrawal method is required", "")
	}

	newBalance, err := h.accountService.Withdraw(c.Context(), DefaultAccountID, req.Amount, req.WithdrawalMethod)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":          "Withdrawal successful",
		"amount":           req.Amount,
		"withdrawalMethod": req.WithdrawalMethod,
		"newBalance":       newBalance,
	})
}

func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req models.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request format", err.Error())
	}
	if strings.TrimSpace(req.Recipient) == "" {
		return badRequest("Recipient is required", "")
	}
	if err := validAmount(req.Amount); err != nil {
		return err
	}

	if err := h.accountService.Transfer(c.Context(), DefaultAccountID, req.Recipient, req.Amount); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Transfer completed successfully"})
}

func (h *Handler) RequestLoan(c *fiber.Ctx) error {
	var req models.LoanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request format", err.Error())
	}
	if err := validAmount(req.Amount); err != nil {
		return err
	}

	if err := h.accountService.RequestLoan(c.Context(), DefaultAccountID, req.Amount); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Loan approved"})
}

func (h *Handler) CloseAccount(c *fiber.Ctx) error {
	var req models.CloseAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request format", err.Error())
	}

	if err := h.accountService.CloseAccount(c.Context(), DefaultAccountID, req.Username, req.Pin); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Account closed successfully"})
}

func validAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return badRequest("Amount must be a positive number", "")
	}
	if amount.GreaterThan(maxAmount) {
		return badRequest("Amount exceeds maximum limit", "")
	}
	return nil
}

func badRequest(message, details string) error {
	return &services.Error{Kind: services.KindValidation, Message: message, Details: details}
}
