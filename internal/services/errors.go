package services

import "fmt"

// Kind classifies a service failure so the transport layer can pick a status
// code without inspecting message text.
type Kind int

const (
	// KindValidation covers malformed or out-of-range input. No mutation
	// was applied.
	KindValidation Kind = iota + 1
	// KindNotFound covers unknown or inactive accounts.
	KindNotFound
	// KindDenied covers business-rule rejections: insufficient funds, the
	// loan cap, PIN mismatch, missing transfer recipient.
	KindDenied
	// KindInternal covers unexpected backend faults.
	KindInternal
)

// Error is the tagged error carried across the service boundary.
type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Details string `json:"details"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (kind: %d, details: %s)", e.Message, e.Kind, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}
