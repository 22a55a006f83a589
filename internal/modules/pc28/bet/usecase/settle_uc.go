package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
	rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	"github.com/frankieli/pc28_game/internal/modules/wallet"
	"github.com/frankieli/pc28_game/pkg/logger"
)

// SettleUseCase evaluates every bet of a finished round. A round is
// settled at most once; the round authority absorbs the duplicate error.
type SettleUseCase struct {
	betRepo     domain.BetRepository
	orderRepo   domain.BetOrderRepository
	wallet      wallet.Service
	broadcaster domain.Broadcaster
	workers     int
	now         func() time.Time

	mu      sync.Mutex
	settled map[uint64]bool
}

// NewSettleUseCase creates a settlement use case with the given worker limit
func NewSettleUseCase(betRepo domain.BetRepository, orderRepo domain.BetOrderRepository, walletSvc wallet.Service, broadcaster domain.Broadcaster, workers int) *SettleUseCase {
	if workers < 1 {
		workers = 1
	}
	return &SettleUseCase{
		betRepo:     betRepo,
		orderRepo:   orderRepo,
		wallet:      walletSvc,
		broadcaster: broadcaster,
		workers:     workers,
		now:         time.Now,
		settled:     make(map[uint64]bool),
	}
}

// SetNowFunc overrides the wall clock, for tests
func (uc *SettleUseCase) SetNowFunc(now func() time.Time) {
	uc.now = now
}

// SettleBets evaluates all bets of snap's round against its result.
// It returns only after every bet has reached a terminal status; wallet
// credits and per-user notifications happen before the round is reported
// settled.
func (uc *SettleUseCase) SettleBets(ctx context.Context, snap rounddomain.Snapshot) error {
	if !uc.claim(snap.ID) {
		return domain.NewError(domain.KindAlreadySettled, "round %d already settled", snap.ID)
	}

	result := draw.Result{A: snap.ResultA, B: snap.ResultB, C: snap.ResultC, Sum: snap.Sum}
	settledAt := uc.now()

	var (
		done      []*domain.Bet
		doneMu    sync.Mutex
		total     int
		totalWins int
	)

	for {
		batch, err := uc.betRepo.TakeForSettlement(ctx, snap.ID)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		total += len(batch)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(uc.workers)
		for _, bet := range batch {
			bet := bet
			g.Go(func() error {
				won := draw.CheckWin(string(bet.BetType), bet.BetValue, result)
				payout := 0.0
				if won {
					payout = bet.Amount * bet.Odds
				}
				if err := bet.Settle(won, payout, settledAt); err != nil {
					return err
				}
				if err := uc.betRepo.MarkSettled(gctx, bet); err != nil {
					return err
				}
				if won {
					if _, err := uc.wallet.Credit(gctx, bet.UserID, payout, "win:"+bet.ID); err != nil {
						return err
					}
				}
				uc.notify(bet)

				doneMu.Lock()
				done = append(done, bet)
				if won {
					totalWins++
				}
				doneMu.Unlock()
				return nil
			})
		}
		// Join before the next take; no bet may straggle past settlement.
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if uc.orderRepo != nil && len(done) > 0 {
		if err := uc.orderRepo.BatchCreate(ctx, done); err != nil {
			logger.Error(ctx).Err(err).Uint64("round_id", snap.ID).Msg("Failed to archive settled bets")
		}
	}

	logger.Info(ctx).
		Uint64("round_id", snap.ID).
		Int("bets", total).
		Int("wins", totalWins).
		Msg("Bets settled")
	return nil
}

// RefundBets voids every pending bet of a round, returning stakes. Used
// when the round itself is voided; it also claims the round so a late
// settlement trigger becomes a no-op.
func (uc *SettleUseCase) RefundBets(ctx context.Context, roundID uint64) (int, error) {
	uc.claim(roundID)

	refundedAt := uc.now()
	refunded := 0
	for {
		batch, err := uc.betRepo.TakeForSettlement(ctx, roundID)
		if err != nil {
			return refunded, err
		}
		if len(batch) == 0 {
			break
		}
		for _, bet := range batch {
			if err := bet.VoidRefund(refundedAt); err != nil {
				continue
			}
			if err := uc.betRepo.MarkSettled(ctx, bet); err != nil {
				return refunded, err
			}
			if _, err := uc.wallet.Credit(ctx, bet.UserID, bet.Amount, "void:"+bet.ID); err != nil {
				return refunded, err
			}
			uc.notify(bet)
			refunded++
		}
	}

	logger.Info(ctx).Uint64("round_id", roundID).Int("refunded", refunded).Msg("Bets refunded")
	return refunded, nil
}

func (uc *SettleUseCase) claim(roundID uint64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.settled[roundID] {
		return false
	}
	uc.settled[roundID] = true
	return true
}

func (uc *SettleUseCase) notify(bet *domain.Bet) {
	if uc.broadcaster == nil {
		return
	}
	uc.broadcaster.SendToUser(bet.UserID, rounddomain.Event{
		Type: rounddomain.EventBetSettled,
		Payload: domain.SettledPayload{
			BetID:     bet.ID,
			RoundID:   bet.RoundID,
			BetType:   bet.BetType,
			Amount:    bet.Amount,
			WinAmount: bet.WinAmount,
			Status:    bet.Status,
		},
	})
}
