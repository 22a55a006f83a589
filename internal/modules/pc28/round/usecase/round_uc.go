// Package usecase implements the round lifecycle authority: it owns the
// current round, is the sole writer of round status, and serializes bet
// admission against round closure.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
	"github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	"github.com/frankieli/pc28_game/pkg/logger"
	"github.com/frankieli/pc28_game/pkg/metrics"
)

// BetSettler is the settlement trigger. SettleBets must leave no bet
// pending before returning; RefundBets refunds stake on a voided round.
type BetSettler interface {
	SettleBets(ctx context.Context, round domain.Snapshot) error
	RefundBets(ctx context.Context, roundID uint64) (int, error)
}

// RoundUseCase manages round lifecycle. All mutable round state is guarded
// by a single mutex: admission, closure, and voiding serialize on it, so a
// bet is either fully recorded before closure is observable or rejected.
type RoundUseCase struct {
	mu          sync.Mutex
	current     *domain.Round
	pendingKeno []int
	idSeq       uint64
	issueBase   string
	issueSeq    int
	halted      bool
	haltReason  string

	duration time.Duration
	window   time.Duration

	repo        domain.RoundRepository
	broadcaster domain.Broadcaster
	settler     BetSettler

	rnd *rand.Rand
	now func() time.Time
}

// NewRoundUseCase creates a new round use case
func NewRoundUseCase(durationSeconds, windowSeconds int, repo domain.RoundRepository, broadcaster domain.Broadcaster) *RoundUseCase {
	return &RoundUseCase{
		duration:    time.Duration(durationSeconds) * time.Second,
		window:      time.Duration(windowSeconds) * time.Second,
		repo:        repo,
		broadcaster: broadcaster,
		idSeq:       uint64(time.Now().Unix()),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

// nextIssueNumber mints the next issue number under uc.mu. Wall time alone
// is not unique: a void-then-reopen inside one second would mint the same
// issue number, so a per-second counter is suffixed.
func (uc *RoundUseCase) nextIssueNumber(now time.Time) string {
	base := now.Format("20060102150405")
	if base == uc.issueBase {
		uc.issueSeq++
	} else {
		uc.issueBase = base
		uc.issueSeq = 0
	}
	return fmt.Sprintf("%s%03d", base, uc.issueSeq)
}

// SetSettler sets the settlement trigger (resolves the construction cycle
// with the bet module, which needs this use case for admission).
func (uc *RoundUseCase) SetSettler(settler BetSettler) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.settler = settler
}

// SetNowFunc overrides the wall clock, for tests
func (uc *RoundUseCase) SetNowFunc(now func() time.Time) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.now = now
}

// OpenNewRound creates the next round with status open and publishes
// round_opened. kenoData optionally supplies the raw draw input; when nil
// a mock draw is generated at close time. Fails with InvalidState if a
// round is currently open or pending.
func (uc *RoundUseCase) OpenNewRound(ctx context.Context, kenoData []int) (domain.Snapshot, error) {
	uc.mu.Lock()

	if uc.halted {
		uc.mu.Unlock()
		return domain.Snapshot{}, domain.NewError(domain.KindInvalidState, "admission halted: %s", uc.haltReason)
	}
	if uc.current != nil && !uc.current.Status.IsTerminal() {
		cur := uc.current.IssueNumber
		st := uc.current.Status
		uc.mu.Unlock()
		return domain.Snapshot{}, domain.NewError(domain.KindInvalidState, "round %s still %s", cur, st)
	}
	if len(kenoData) > 0 && len(kenoData) < 18 {
		uc.mu.Unlock()
		return domain.Snapshot{}, domain.NewError(domain.KindInvalidState, "source data too short: %d numbers", len(kenoData))
	}

	now := uc.now()
	uc.idSeq++
	round := domain.NewRound(uc.idSeq, uc.nextIssueNumber(now), now, uc.duration)
	uc.current = round
	uc.pendingKeno = kenoData
	snap := round.Snapshot()
	uc.mu.Unlock()

	if uc.repo != nil {
		if err := uc.repo.Create(ctx, round); err != nil {
			logger.Error(ctx).Err(err).Str("issue", round.IssueNumber).Msg("Failed to persist new round")
		}
	}
	uc.checkSingleActive(ctx)

	logger.Info(ctx).
		Str("issue", snap.IssueNumber).
		Time("close_time", snap.CloseTime).
		Msg("Round opened")
	metrics.RoundsOpened.Inc()

	uc.publish(domain.Event{Type: domain.EventRoundOpened, Payload: snap})
	return snap, nil
}

// OnClockClose handles the clock's close signal: transitions the round to
// closed, derives the outcome, runs settlement, and marks the round
// settled only after every bet reached a terminal status.
func (uc *RoundUseCase) OnClockClose(ctx context.Context, roundID uint64) error {
	uc.mu.Lock()
	cur := uc.current
	if cur == nil || cur.ID != roundID || cur.Status.IsTerminal() {
		uc.mu.Unlock()
		// A delayed signal from a round already replaced, voided, or settled.
		logger.Warn(ctx).Uint64("round_id", roundID).Msg("Discarding stale close signal")
		return domain.NewError(domain.KindStaleSignal, "close signal for round %d is not current", roundID)
	}
	if err := cur.Close(); err != nil {
		uc.mu.Unlock()
		return err
	}
	keno := uc.pendingKeno
	if len(keno) == 0 {
		keno = draw.GenerateKeno(uc.rnd)
	}
	snap := cur.Snapshot()
	uc.mu.Unlock()

	logger.Info(ctx).Str("issue", snap.IssueNumber).Msg("Round closed")
	uc.publish(domain.Event{Type: domain.EventRoundClosed, Payload: snap})
	uc.persist(ctx, cur)

	return uc.settle(ctx, cur, keno)
}

// settle derives the outcome, hands all pending bets to the settler, and
// finishes the round. The outcome is written once, under the round lock.
func (uc *RoundUseCase) settle(ctx context.Context, round *domain.Round, keno []int) error {
	result, err := draw.Calculate(keno)
	if err != nil {
		return err
	}

	uc.mu.Lock()
	if err := round.BeginSettle(draw.KenoToJSON(keno), result); err != nil {
		uc.mu.Unlock()
		// The round was voided between close and settle; the refund
		// path owns its bets now.
		logger.Warn(ctx).Err(err).Str("issue", round.IssueNumber).Msg("Skipping settlement")
		return nil
	}
	snap := round.Snapshot()
	uc.mu.Unlock()

	if uc.settler != nil {
		if err := uc.settler.SettleBets(ctx, snap); err != nil {
			logger.Error(ctx).Err(err).Str("issue", snap.IssueNumber).Msg("Settlement failed")
			return err
		}
	}

	uc.mu.Lock()
	if err := round.FinishSettle(uc.now()); err != nil {
		uc.mu.Unlock()
		return err
	}
	final := round.Snapshot()
	uc.mu.Unlock()

	logger.Info(ctx).
		Str("issue", final.IssueNumber).
		Int("result_a", final.ResultA).
		Int("result_b", final.ResultB).
		Int("result_c", final.ResultC).
		Int("sum", final.Sum).
		Msg("Round settled")
	metrics.RoundsSettled.Inc()

	uc.publish(domain.Event{Type: domain.EventResult, Payload: final})
	uc.persist(ctx, round)
	return nil
}

// VoidRound administratively cancels the current round. All its bets are
// refunded stake-for-stake; no outcome is derived. Irreversible.
func (uc *RoundUseCase) VoidRound(ctx context.Context, roundID uint64, reason string) error {
	uc.mu.Lock()
	cur := uc.current
	if cur == nil || cur.ID != roundID {
		uc.mu.Unlock()
		return domain.NewError(domain.KindInvalidState, "round %d is not current", roundID)
	}
	if err := cur.Void(reason); err != nil {
		uc.mu.Unlock()
		return err
	}
	snap := cur.Snapshot()
	uc.mu.Unlock()

	logger.Warn(ctx).
		Str("issue", snap.IssueNumber).
		Str("reason", reason).
		Msg("Round voided")
	metrics.RoundsVoided.Inc()

	uc.publish(domain.Event{Type: domain.EventRoundVoided, Payload: snap})

	if uc.settler != nil {
		count, err := uc.settler.RefundBets(ctx, roundID)
		if err != nil {
			logger.Error(ctx).Err(err).Str("issue", snap.IssueNumber).Msg("Refund pass failed")
		} else {
			logger.Info(ctx).Int("refunded", count).Str("issue", snap.IssueNumber).Msg("Round bets refunded")
		}
	}

	uc.persist(ctx, cur)
	return nil
}

// Admit runs fn while the round lock is held, if and only if roundID is
// the current open round inside its betting window. Bets recorded inside
// fn therefore land strictly before any closure becomes observable.
func (uc *RoundUseCase) Admit(ctx context.Context, roundID uint64, fn func(round domain.Snapshot) error) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.halted {
		// Fail closed: an invariant violation was detected.
		return domain.NewError(domain.KindRoundNotOpen, "admission halted: %s", uc.haltReason)
	}
	cur := uc.current
	if cur == nil || cur.ID != roundID || cur.Status != domain.StatusOpen {
		return domain.NewError(domain.KindRoundNotOpen, "round %d is not accepting bets", roundID)
	}
	if uc.now().After(cur.OpenTime.Add(uc.window)) {
		return domain.NewError(domain.KindRoundNotOpen, "betting window for round %s has elapsed", cur.IssueNumber)
	}
	return fn(cur.Snapshot())
}

// Snapshot returns the current round and its remaining display countdown.
// ok is false when no round has been opened yet.
func (uc *RoundUseCase) Snapshot() (snap domain.Snapshot, remaining int, ok bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.current == nil {
		return domain.Snapshot{}, 0, false
	}
	snap = uc.current.Snapshot()
	remaining = int(snap.CloseTime.Sub(uc.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return snap, remaining, true
}

// History returns recent settled rounds, newest first
func (uc *RoundUseCase) History(ctx context.Context, limit int) ([]*domain.Round, error) {
	if uc.repo == nil {
		return nil, nil
	}
	return uc.repo.ListRecentSettled(ctx, limit)
}

// BroadcastCountdown publishes a countdown tick for the active round
func (uc *RoundUseCase) BroadcastCountdown(seconds int) {
	uc.publish(domain.Event{Type: domain.EventCountdown, Payload: domain.CountdownPayload{Seconds: seconds}})
}

// Halted reports whether admission has been halted by an invariant breach
func (uc *RoundUseCase) Halted() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.halted
}

// checkSingleActive verifies the one-open-round invariant against the
// repository. Detecting a second open round halts admission until the
// stored state is resolved by an operator.
func (uc *RoundUseCase) checkSingleActive(ctx context.Context) {
	if uc.repo == nil {
		return
	}
	n, err := uc.repo.CountActive(ctx)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Could not verify single-active-round invariant")
		return
	}
	if n > 1 {
		uc.mu.Lock()
		uc.halted = true
		uc.haltReason = "multiple rounds in open/pending status"
		uc.mu.Unlock()
		logger.Error(ctx).Int("active_rounds", n).Msg("Invariant violated: multiple active rounds, admission halted")
	}
}

func (uc *RoundUseCase) publish(event domain.Event) {
	if uc.broadcaster != nil {
		uc.broadcaster.Broadcast(event)
	}
}

func (uc *RoundUseCase) persist(ctx context.Context, round *domain.Round) {
	if uc.repo == nil {
		return
	}
	uc.mu.Lock()
	record := *round
	uc.mu.Unlock()
	if err := uc.repo.Update(ctx, &record); err != nil {
		logger.Error(ctx).Err(err).Str("issue", record.IssueNumber).Msg("Failed to persist round update")
	}
}

// IsStale reports whether err is a discarded stale signal
func IsStale(err error) bool {
	return errors.Is(err, domain.ErrStaleSignal)
}
