package book

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the book service.
var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchAlreadySettled     = errors.New("match already settled")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrEntryNotFound           = errors.New("entry not found")
	ErrSettlementNotFound      = errors.New("settlement not found")
	ErrDuplicateSettlement     = errors.New("duplicate settlement")
	ErrDuplicateCustomer       = errors.New("duplicate customer")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidMatchID          = errors.New("invalid match id")
	ErrInvalidCustomerID       = errors.New("invalid customer id")
	ErrInvalidEntryID          = errors.New("invalid entry id")
	ErrInvalidName             = errors.New("invalid name")
	ErrInvalidSide             = errors.New("invalid side")
	ErrInvalidMatchStatus      = errors.New("invalid match status")
	ErrInvalidCustomerStatus   = errors.New("invalid customer status")
	ErrInvalidSharePercent     = errors.New("invalid share percent")
	ErrInvalidExposure         = errors.New("invalid exposure")
	ErrInvalidStake            = errors.New("invalid stake")
	ErrInvalidOdds             = errors.New("invalid odds")
	ErrInvalidEmail            = errors.New("invalid email")
	ErrInvalidCreditLimit      = errors.New("invalid credit limit")
	ErrInvalidServiceConfig    = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
