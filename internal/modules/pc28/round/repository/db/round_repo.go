// Package db provides gorm-backed round persistence.
package db

import (
	"context"

	"github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	"gorm.io/gorm"
)

// RoundRepository implements domain.RoundRepository using gorm
type RoundRepository struct {
	db *gorm.DB
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) Create(ctx context.Context, round *domain.Round) error {
	return r.db.WithContext(ctx).Create(round).Error
}

func (r *RoundRepository) Update(ctx context.Context, round *domain.Round) error {
	return r.db.WithContext(ctx).Save(round).Error
}

func (r *RoundRepository) ListRecentSettled(ctx context.Context, limit int) ([]*domain.Round, error) {
	var rounds []*domain.Round
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusSettled).
		Order("id desc").
		Limit(limit).
		Find(&rounds).Error
	return rounds, err
}

func (r *RoundRepository) CountActive(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Round{}).
		Where("status IN ?", []domain.Status{domain.StatusOpen, domain.StatusPending}).
		Count(&count).Error
	return int(count), err
}
