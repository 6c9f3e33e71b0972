package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoProviderFound is returned when no wallet provider is injected.
	// This is a hard precondition failure, not something to retry.
	ErrNoProviderFound = errors.New("no wallet provider found")

	// ErrUserRejected is returned when the provider declines a request.
	ErrUserRejected = errors.New("user rejected request")

	// ErrNotConnected is returned for operations that need an active session.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrContractReverted is returned when an on-chain call reverts.
	ErrContractReverted = errors.New("contract reverted")

	// ErrInsufficientFunds is returned when the signer cannot cover the call.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTimeout is returned when a confirmation wait exceeds its bound.
	ErrTimeout = errors.New("confirmation timed out")

	// ErrRateLimited is returned when the upstream price feed responds 429.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable is returned for any other upstream feed failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrOperationNotFound is returned when an operation handle is unknown
	// (terminal operations are discarded after their notification).
	ErrOperationNotFound = errors.New("operation not found")
)

// ValidationError reports invalid submit parameters. It is resolved locally
// and never reaches the network layer.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed [%s]: %s", e.Field, e.Msg)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation checks whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ClassifyFailure maps a provider/contract error onto a FailReason.
func ClassifyFailure(err error) FailReason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrUserRejected):
		return ReasonUserRejected
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrContractReverted):
		return ReasonContractReverted
	}
	// Providers report rejection and balance failures with free-form
	// messages; match the common phrasings before giving up.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user denied") || strings.Contains(msg, "user rejected"):
		return ReasonUserRejected
	case strings.Contains(msg, "insufficient funds") || strings.Contains(msg, "insufficient balance"):
		return ReasonInsufficientFunds
	case strings.Contains(msg, "revert") || strings.Contains(msg, "execution reverted"):
		return ReasonContractReverted
	}
	return ReasonUnknown
}
