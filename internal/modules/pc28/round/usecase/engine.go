package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/frankieli/pc28_game/internal/modules/pc28/round/machine"
	"github.com/frankieli/pc28_game/pkg/logger"
)

// Engine drives the round loop: open a round, tick the clock once per
// interval, close on the clock's single close signal, rest, repeat.
type Engine struct {
	rounds *RoundUseCase
	clock  *machine.Clock

	// overridable for tests
	TickInterval time.Duration
	RestDuration time.Duration

	mu       sync.Mutex
	stopping bool
}

// NewEngine creates a new engine
func NewEngine(rounds *RoundUseCase, clock *machine.Clock, restSeconds int) *Engine {
	return &Engine{
		rounds:       rounds,
		clock:        clock,
		TickInterval: time.Second,
		RestDuration: time.Duration(restSeconds) * time.Second,
	}
}

// Stop signals the engine to stop after the current round
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopping = true
}

func (e *Engine) isStopping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopping
}

// Run starts the engine loop. It returns when ctx is cancelled or after
// Stop, at a round boundary.
func (e *Engine) Run(ctx context.Context) {
	logger.Info(ctx).Msg("Round engine started")
	for {
		if e.isStopping() || ctx.Err() != nil {
			logger.Info(ctx).Msg("Round engine stopped")
			return
		}
		e.runRound(ctx)

		select {
		case <-ctx.Done():
		case <-time.After(e.RestDuration):
		}
	}
}

// runRound executes a single round from open to settled
func (e *Engine) runRound(ctx context.Context) {
	snap, err := e.rounds.OpenNewRound(ctx, nil)
	if err != nil {
		// A round opened through the admin surface may still be live.
		logger.Warn(ctx).Err(err).Msg("Engine could not open a round, retrying after rest")
		return
	}

	e.clock.Bind(snap.ID)
	e.rounds.BroadcastCountdown(e.clock.Remaining())

	ticker := time.NewTicker(e.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining, closeNow := e.clock.Tick()
			e.rounds.BroadcastCountdown(remaining)
			if closeNow {
				if err := e.rounds.OnClockClose(ctx, snap.ID); err != nil && !IsStale(err) {
					logger.Error(ctx).Err(err).Uint64("round_id", snap.ID).Msg("Round close failed")
				}
				return
			}
		}
	}
}
