package domain

import "context"

// BetRepository is the authoritative live bet store
type BetRepository interface {
	// Save records an admitted bet
	Save(ctx context.Context, bet *Bet) error

	// ListByUser returns all bets for an account, newest first
	ListByUser(ctx context.Context, userID uint64) ([]*Bet, error)

	// ListByRound returns all bets for a round
	ListByRound(ctx context.Context, roundID uint64) ([]*Bet, error)

	// TakeForSettlement pops pending bets for a round. Callers repeat
	// until it returns an empty batch; each bet is returned exactly once.
	TakeForSettlement(ctx context.Context, roundID uint64) ([]*Bet, error)

	// MarkSettled writes back a bet's terminal status
	MarkSettled(ctx context.Context, bet *Bet) error
}

// BetOrderRepository persists finished bets to durable storage
type BetOrderRepository interface {
	BatchCreate(ctx context.Context, bets []*Bet) error
}
