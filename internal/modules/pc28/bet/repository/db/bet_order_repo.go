// Package db provides gorm-backed bet repositories
package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
)

// BetOrderRepository archives settled bets to the database
type BetOrderRepository struct {
	db *gorm.DB
}

// NewBetOrderRepository creates a new bet order repository
func NewBetOrderRepository(db *gorm.DB) *BetOrderRepository {
	return &BetOrderRepository{db: db}
}

func (r *BetOrderRepository) BatchCreate(ctx context.Context, bets []*domain.Bet) error {
	if len(bets) == 0 {
		return nil
	}
	// Settlement may retry a batch after a partial failure; upsert keeps
	// the archive idempotent.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&bets).Error
}

// ListByUser returns archived bets for an account, newest first
func (r *BetOrderRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&bets).Error
	return bets, err
}
