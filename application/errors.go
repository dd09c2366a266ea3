package application

import (
	"errors"

	"raffle/domain/entities"
)

// ErrAccountNotFound is returned when reading an account that was never funded or paid
var ErrAccountNotFound = errors.New("account not found")

// Error types used as metric labels
const (
	ErrorTypeInsufficientStake = "insufficient_stake"
	ErrorTypeUnauthorized      = "unauthorized"
	ErrorTypeEmptyPool         = "empty_pool"
	ErrorTypePayoutRejected    = "payout_rejected"
	ErrorTypeInsufficientFunds = "insufficient_funds"
	ErrorTypeNotFound          = "not_found"
	ErrorTypeInvalidInput      = "invalid_input"
	ErrorTypeInternal          = "internal"
)

// ErrorType classifies err for metrics and logs
func ErrorType(err error) string {
	switch {
	case errors.Is(err, entities.ErrInsufficientStake):
		return ErrorTypeInsufficientStake
	case errors.Is(err, entities.ErrUnauthorized):
		return ErrorTypeUnauthorized
	case errors.Is(err, entities.ErrEmptyPool):
		return ErrorTypeEmptyPool
	case errors.Is(err, entities.ErrPayoutRejected):
		return ErrorTypePayoutRejected
	case errors.Is(err, entities.ErrInsufficientFunds):
		return ErrorTypeInsufficientFunds
	case errors.Is(err, entities.ErrRaffleNotFound), errors.Is(err, ErrAccountNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, entities.ErrInvalidAddress), errors.Is(err, entities.ErrInvalidAmount):
		return ErrorTypeInvalidInput
	default:
		return ErrorTypeInternal
	}
}

// IsRejection reports whether err is an expected rejection rather than a system failure
func IsRejection(err error) bool {
	return ErrorType(err) != ErrorTypeInternal
}
