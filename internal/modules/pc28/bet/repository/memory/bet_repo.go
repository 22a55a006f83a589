// Package memory provides memory-based bet repositories
package memory

import (
	"context"
	"sync"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
)

// BetRepository implements domain.BetRepository using memory. Stored bets
// are owned by the repository; readers and the settlement queue get copies,
// so list calls never observe a half-settled bet.
type BetRepository struct {
	byID            map[string]*domain.Bet
	byRound         map[uint64][]*domain.Bet // roundID -> bets, history order
	byUser          map[uint64][]*domain.Bet // userID -> bets, history order
	settlementQueue map[uint64][]string      // roundID -> pending bet IDs
	mu              sync.RWMutex
}

// NewBetRepository creates a new memory bet repository
func NewBetRepository() *BetRepository {
	return &BetRepository{
		byID:            make(map[string]*domain.Bet),
		byRound:         make(map[uint64][]*domain.Bet),
		byUser:          make(map[uint64][]*domain.Bet),
		settlementQueue: make(map[uint64][]string),
	}
}

func (r *BetRepository) Save(ctx context.Context, bet *domain.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *bet
	r.byID[stored.ID] = &stored
	r.byRound[stored.RoundID] = append(r.byRound[stored.RoundID], &stored)
	r.byUser[stored.UserID] = append(r.byUser[stored.UserID], &stored)
	r.settlementQueue[stored.RoundID] = append(r.settlementQueue[stored.RoundID], stored.ID)
	return nil
}

func (r *BetRepository) ListByUser(ctx context.Context, userID uint64) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bets := r.byUser[userID]
	out := make([]*domain.Bet, 0, len(bets))
	for i := len(bets) - 1; i >= 0; i-- {
		clone := *bets[i]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *BetRepository) ListByRound(ctx context.Context, roundID uint64) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bets := r.byRound[roundID]
	out := make([]*domain.Bet, 0, len(bets))
	for _, bet := range bets {
		clone := *bet
		out = append(out, &clone)
	}
	return out, nil
}

func (r *BetRepository) TakeForSettlement(ctx context.Context, roundID uint64) ([]*domain.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.settlementQueue[roundID]
	if len(ids) == 0 {
		return nil, nil
	}
	delete(r.settlementQueue, roundID)

	out := make([]*domain.Bet, 0, len(ids))
	for _, id := range ids {
		if stored, ok := r.byID[id]; ok {
			clone := *stored
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *BetRepository) MarkSettled(ctx context.Context, bet *domain.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.byID[bet.ID]; ok {
		*stored = *bet
	}
	return nil
}
