package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankapp/internal/models"
)

// ErrorKind classifies a client-side failure.
type ErrorKind int

const (
	// ErrNetwork: the server was unreachable or the response unreadable.
	ErrNetwork ErrorKind = iota + 1
	// ErrValidation: the server rejected the request as invalid.
	ErrValidation
	// ErrNotFound: no active account matched.
	ErrNotFound
	// ErrInsufficientFunds: a withdrawal or transfer exceeded the balance.
	ErrInsufficientFunds
	// ErrService: the server failed internally.
	ErrService
)

// Error is the tagged error returned by Client and Store operations.
type Error struct {
	Kind    ErrorKind
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// IsNetworkError reports whether err is a transport-level failure, the
// trigger for falling back to the embedded mock data.
func IsNetworkError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == ErrNetwork
}

// MutationResult is the server's acknowledgement of a balance mutation.
type MutationResult struct {
	Message    string          `json:"message"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// Client is a typed HTTP client for the account ledger API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the API rooted at baseURL (e.g.
// "http://localhost:3000/api").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Account fetches the current account snapshot.
func (c *Client) Account(ctx context.Context) (*models.Account, error) {
	var out models.Account
	if err := c.get(ctx, "/account", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary fetches the aggregated account summary.
func (c *Client) Summary(ctx context.Context) (*models.Summary, error) {
	var out models.Summary
	if err := c.get(ctx, "/account/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions fetches one page of the account history, newest first.
func (c *Client) Transactions(ctx context.Context, page, pageSize int) ([]models.Transaction, error) {
	var out []models.Transaction
	path := fmt.Sprintf("/transactions?page=%d&pageSize=%d", page, pageSize)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Deposit credits the account via the given payment method.
func (c *Client) Deposit(ctx context.Context, amount decimal.Decimal, paymentMethod string) (*MutationResult, error) {
	var out MutationResult
	err := c.post(ctx, "/account/deposit", models.DepositRequest{Amount: amount, PaymentMethod: paymentMethod}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Withdraw debits the account via the given withdrawal method.
func (c *Client) Withdraw(ctx context.Context, amount decimal.Decimal, withdrawalMethod string) (*MutationResult, error) {
	var out MutationResult
	err := c.post(ctx, "/account/withdraw", models.WithdrawRequest{Amount: amount, WithdrawalMethod: withdrawalMethod}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Transfer sends amount to the account owning recipient.
func (c *Client) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	return c.post(ctx, "/account/transfer", models.TransferRequest{Recipient: recipient, Amount: amount}, nil)
}

// RequestLoan asks for a loan credit.
func (c *Client) RequestLoan(ctx context.Context, amount decimal.Decimal) error {
	return c.post(ctx, "/account/loan", models.LoanRequest{Amount: amount}, nil)
}

// CloseAccount closes the account after username/PIN verification.
func (c *Client) CloseAccount(ctx context.Context, username, pin string) error {
	return c.post(ctx, "/account/close", models.CloseAccountRequest{Username: username, Pin: pin}, nil)
}

// Health reports whether the backend answers its health probe.
func (c *Client) Health(ctx context.Context) bool {
	var out struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/health", &out) == nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Kind: ErrNetwork, Message: "failed to build request", Details: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: ErrNetwork, Message: "failed to encode request", Details: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: ErrNetwork, Message: "failed to build request", Details: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: ErrNetwork, Message: "request failed", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: ErrNetwork, Message: "failed to decode response", Details: err.Error()}
	}
	return nil
}

// apiError maps an error response to a tagged Error. The payload shape is
// {error, details}; insufficient-funds rejections are recognized by message,
// matching how the server phrases the denial.
func apiError(resp *http.Response) error {
	var payload struct {
		Message string `json:"error"`
		Details string `json:"details"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Message == "" {
		payload.Message = resp.Status
	}

	kind := ErrService
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(payload.Message), "insufficient") {
			kind = ErrInsufficientFunds
		} else {
			kind = ErrValidation
		}
	}
	return &Error{Kind: kind, Message: payload.Message, Details: payload.Details}
}
