package domain

import (
	"errors"
	"fmt"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Wagering error codes. All three are recoverable: the rejected action leaves
// ledger, selections and round state untouched.
const (
	CodeInvalidStake     = "INVALID_STAKE"
	CodeInvalidSelection = "INVALID_SELECTION"
	CodeRoundInProgress  = "ROUND_IN_PROGRESS"
)

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// ErrInvalidStake reports a stake that is not a positive whole amount or exceeds the balance.
func ErrInvalidStake(msg string) *AppError {
	return &AppError{Code: CodeInvalidStake, Message: msg, Status: 400}
}

// ErrInvalidSelection reports a ticket or bet without a usable selection.
func ErrInvalidSelection(msg string) *AppError {
	return &AppError{Code: CodeInvalidSelection, Message: msg, Status: 400}
}

// ErrRoundInProgress reports a bet attempted while the mode's round is not idle.
func ErrRoundInProgress(mode Mode) *AppError {
	return &AppError{Code: CodeRoundInProgress, Message: fmt.Sprintf("%s round already in progress", mode), Status: 409}
}

// HasCode reports whether err is an *AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
