// Package memory provides an in-memory round repository, the default
// backend for tests and single-node runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
)

// RoundRepository implements domain.RoundRepository in memory
type RoundRepository struct {
	mu     sync.RWMutex
	rounds map[uint64]domain.Round
}

// NewRoundRepository creates a new memory round repository
func NewRoundRepository() *RoundRepository {
	return &RoundRepository{rounds: make(map[uint64]domain.Round)}
}

func (r *RoundRepository) Create(ctx context.Context, round *domain.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds[round.ID] = *round
	return nil
}

func (r *RoundRepository) Update(ctx context.Context, round *domain.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds[round.ID] = *round
	return nil
}

func (r *RoundRepository) ListRecentSettled(ctx context.Context, limit int) ([]*domain.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settled := make([]*domain.Round, 0)
	for id := range r.rounds {
		round := r.rounds[id]
		if round.Status == domain.StatusSettled {
			settled = append(settled, &round)
		}
	}
	sort.Slice(settled, func(i, j int) bool { return settled[i].ID > settled[j].ID })
	if len(settled) > limit {
		settled = settled[:limit]
	}
	return settled, nil
}

func (r *RoundRepository) CountActive(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, round := range r.rounds {
		if round.Status == domain.StatusOpen || round.Status == domain.StatusPending {
			count++
		}
	}
	return count, nil
}
