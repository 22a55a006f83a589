// Package usecase implements the bet admission gate and the settlement
// trigger for the PC28 game.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	"github.com/frankieli/pc28_game/internal/modules/wallet"
	"github.com/frankieli/pc28_game/pkg/logger"
	"github.com/frankieli/pc28_game/pkg/metrics"
)

// RoundAdmitter is the round authority's admission seam. The callback
// runs inside the round lock, so a recorded bet is never concurrent with
// a status transition.
type RoundAdmitter interface {
	Admit(ctx context.Context, roundID uint64, fn func(round rounddomain.Snapshot) error) error
}

// OddsProvider quotes current odds for a bet type
type OddsProvider interface {
	Quote(betType string) (float64, bool)
}

// BetUseCase is the bet admission gate
type BetUseCase struct {
	betRepo  domain.BetRepository
	rounds   RoundAdmitter
	odds     OddsProvider
	wallet   wallet.Service
	minStake float64
	maxStake float64
	now      func() time.Time
}

// NewBetUseCase creates a new bet use case
func NewBetUseCase(betRepo domain.BetRepository, rounds RoundAdmitter, odds OddsProvider, walletSvc wallet.Service, minStake, maxStake float64) *BetUseCase {
	return &BetUseCase{
		betRepo:  betRepo,
		rounds:   rounds,
		odds:     odds,
		wallet:   walletSvc,
		minStake: minStake,
		maxStake: maxStake,
		now:      time.Now,
	}
}

// SetNowFunc overrides the wall clock, for tests
func (uc *BetUseCase) SetNowFunc(now func() time.Time) {
	uc.now = now
}

// PlaceBet validates and records a bet against the currently open round.
// The odds quoted here stay with the bet even if the table changes later.
func (uc *BetUseCase) PlaceBet(ctx context.Context, userID, roundID uint64, betType domain.Kind, betValue *int, amount float64) (*domain.Bet, error) {
	ctx = logger.WithFields(ctx, map[string]interface{}{
		"user_id":  userID,
		"round_id": roundID,
	})

	if err := validateParam(betType, betValue); err != nil {
		metrics.BetsRejected.WithLabelValues(domain.KindInvalidParam).Inc()
		logger.Warn(ctx).Err(err).Str("bet_type", string(betType)).Msg("Bet rejected")
		return nil, err
	}
	if amount < uc.minStake || amount > uc.maxStake {
		metrics.BetsRejected.WithLabelValues(domain.KindInvalidStake).Inc()
		logger.Warn(ctx).Float64("amount", amount).Msg("Bet rejected: stake out of bounds")
		return nil, domain.NewError(domain.KindInvalidStake,
			"stake %v outside [%v, %v]", amount, uc.minStake, uc.maxStake)
	}

	odds, ok := uc.odds.Quote(string(betType))
	if !ok {
		metrics.BetsRejected.WithLabelValues(domain.KindInvalidParam).Inc()
		return nil, domain.NewError(domain.KindInvalidParam, "no odds for bet type %s", betType)
	}

	// Debit first so the admission critical section stays short; a
	// rejected bet refunds the stake below.
	if _, err := uc.wallet.Debit(ctx, userID, amount, fmt.Sprintf("bet:%d", roundID)); err != nil {
		logger.Warn(ctx).Err(err).Float64("amount", amount).Msg("Wallet debit failed")
		return nil, fmt.Errorf("wallet debit: %w", err)
	}

	value := 0
	if betValue != nil {
		value = *betValue
	}

	var bet *domain.Bet
	err := uc.rounds.Admit(ctx, roundID, func(round rounddomain.Snapshot) error {
		bet = domain.NewBet(round.ID, userID, betType, value, amount, odds, uc.now())
		return uc.betRepo.Save(ctx, bet)
	})
	if err != nil {
		if _, refundErr := uc.wallet.Credit(ctx, userID, amount, fmt.Sprintf("bet_reject:%d", roundID)); refundErr != nil {
			logger.Error(ctx).Err(refundErr).Float64("amount", amount).Msg("Failed to refund rejected bet")
		}
		metrics.BetsRejected.WithLabelValues(rounddomain.KindRoundNotOpen).Inc()
		logger.Warn(ctx).Err(err).Msg("Bet rejected by round authority")
		return nil, err
	}

	metrics.BetsAccepted.WithLabelValues(string(betType)).Inc()
	logger.Info(ctx).
		Str("bet_id", bet.ID).
		Str("bet_type", string(betType)).
		Float64("amount", amount).
		Float64("odds", odds).
		Msg("Bet accepted")

	return bet, nil
}

// ListBets returns all bets for an account, newest first
func (uc *BetUseCase) ListBets(ctx context.Context, userID uint64) ([]*domain.Bet, error) {
	return uc.betRepo.ListByUser(ctx, userID)
}

func validateParam(betType domain.Kind, betValue *int) error {
	if !betType.Valid() {
		return domain.NewError(domain.KindInvalidParam, "unknown bet type %q", betType)
	}
	if betType.RequiresValue() {
		if betValue == nil {
			return domain.NewError(domain.KindInvalidParam, "bet type %s requires bet_value", betType)
		}
		if *betValue < 0 || *betValue > 27 {
			return domain.NewError(domain.KindInvalidParam, "bet_value %d outside 0-27", *betValue)
		}
		return nil
	}
	if betValue != nil {
		return domain.NewError(domain.KindInvalidParam, "bet type %s takes no bet_value", betType)
	}
	return nil
}
