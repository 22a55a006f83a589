// Package wallet defines the interface to the balance collaborator and a
// mock implementation for single-node runs and tests.
package wallet

import (
	"context"
	"errors"
)

// ErrInsufficientBalance is returned when a debit exceeds the balance
var ErrInsufficientBalance = errors.New("insufficient balance")

// Service is the wallet collaborator interface
type Service interface {
	// Debit removes amount from the account, failing with
	// ErrInsufficientBalance rather than going negative.
	Debit(ctx context.Context, userID uint64, amount float64, reason string) (float64, error)

	// Credit adds amount to the account
	Credit(ctx context.Context, userID uint64, amount float64, reason string) (float64, error)

	// Balance returns the current balance
	Balance(ctx context.Context, userID uint64) (float64, error)
}
