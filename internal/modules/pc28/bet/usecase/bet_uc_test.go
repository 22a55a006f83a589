package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	betmemory "github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/memory"
	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/usecase"
	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
	rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	roundmemory "github.com/frankieli/pc28_game/internal/modules/pc28/round/repository/memory"
	roundusecase "github.com/frankieli/pc28_game/internal/modules/pc28/round/usecase"
	"github.com/frankieli/pc28_game/internal/modules/wallet"
	"github.com/frankieli/pc28_game/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "error", Format: "console"})
}

// NullBroadcaster swallows all events
type NullBroadcaster struct{}

func (NullBroadcaster) Broadcast(event rounddomain.Event)                  {}
func (NullBroadcaster) SendToUser(userID uint64, event rounddomain.Event) {}

type betFixture struct {
	rounds  *roundusecase.RoundUseCase
	bets    *usecase.BetUseCase
	settle  *usecase.SettleUseCase
	betRepo *betmemory.BetRepository
	wallet  *wallet.MockService
}

func newBetFixture(t *testing.T) *betFixture {
	t.Helper()

	broadcaster := NullBroadcaster{}
	rounds := roundusecase.NewRoundUseCase(60, 55, roundmemory.NewRoundRepository(), broadcaster)
	betRepo := betmemory.NewBetRepository()
	walletSvc := wallet.NewMockService()

	bets := usecase.NewBetUseCase(betRepo, rounds, draw.DefaultOdds(), walletSvc, 1, 10000)
	settle := usecase.NewSettleUseCase(betRepo, nil, walletSvc, broadcaster, 4)
	rounds.SetSettler(settle)

	return &betFixture{
		rounds:  rounds,
		bets:    bets,
		settle:  settle,
		betRepo: betRepo,
		wallet:  walletSvc,
	}
}

func intPtr(v int) *int { return &v }

func TestPlaceBet(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	bet, err := f.bets.PlaceBet(ctx, 1001, snap.ID, domain.KindBig, nil, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, bet.ID)
	assert.Equal(t, snap.ID, bet.RoundID)
	assert.Equal(t, domain.StatusPending, bet.Status)
	assert.Equal(t, 1.95, bet.Odds, "odds fixed at acceptance")

	balance, err := f.wallet.Balance(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, 9900.0, balance, "stake debited")

	listed, err := f.bets.ListBets(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, bet.ID, listed[0].ID)
}

func TestPlaceBetKeepsQuotedOddsAcrossUpdate(t *testing.T) {
	f := newBetFixture(t)
	odds := draw.DefaultOdds()
	f.bets = usecase.NewBetUseCase(f.betRepo, f.rounds, odds, f.wallet, 1, 10000)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	bet, err := f.bets.PlaceBet(ctx, 1001, snap.ID, domain.KindSmall, nil, 50)
	require.NoError(t, err)

	require.NoError(t, odds.Update(map[string]float64{"small": 1.80}))
	assert.Equal(t, 1.95, bet.Odds, "later odds changes must not touch admitted bets")
}

func TestPlaceBetValidation(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	cases := []struct {
		name     string
		betType  domain.Kind
		betValue *int
		amount   float64
		sentinel error
	}{
		{"unknown type", "rainbow", nil, 100, domain.ErrInvalidParam},
		{"number without value", domain.KindNumber, nil, 100, domain.ErrInvalidParam},
		{"number value too high", domain.KindNumber, intPtr(28), 100, domain.ErrInvalidParam},
		{"number value negative", domain.KindNumber, intPtr(-1), 100, domain.ErrInvalidParam},
		{"value on side bet", domain.KindBig, intPtr(14), 100, domain.ErrInvalidParam},
		{"stake below minimum", domain.KindBig, nil, 0.5, domain.ErrInvalidStake},
		{"stake above maximum", domain.KindBig, nil, 20000, domain.ErrInvalidStake},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.bets.PlaceBet(ctx, 1001, snap.ID, tc.betType, tc.betValue, tc.amount)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel), "got %v", err)
		})
	}

	// No stake leaked on any rejection
	balance, err := f.wallet.Balance(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, balance)
}

func TestPlaceBetBoundaryValues(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	_, err = f.bets.PlaceBet(ctx, 1, snap.ID, domain.KindNumber, intPtr(0), 1)
	assert.NoError(t, err)

	_, err = f.bets.PlaceBet(ctx, 2, snap.ID, domain.KindNumber, intPtr(27), 10000)
	assert.NoError(t, err)
}

func TestPlaceBetWindowBoundary(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	base := time.Now()
	f.rounds.SetNowFunc(func() time.Time { return base })
	f.bets.SetNowFunc(func() time.Time { return base })

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	// 54 seconds into a 60s round with a 55s window: accepted
	f.rounds.SetNowFunc(func() time.Time { return base.Add(54 * time.Second) })
	_, err = f.bets.PlaceBet(ctx, 1001, snap.ID, domain.KindBig, nil, 100)
	require.NoError(t, err)

	// 56 seconds in: rejected even though the round has not closed yet
	f.rounds.SetNowFunc(func() time.Time { return base.Add(56 * time.Second) })
	_, err = f.bets.PlaceBet(ctx, 1001, snap.ID, domain.KindBig, nil, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rounddomain.ErrRoundNotOpen))

	// Stake of the rejected bet refunded
	balance, err := f.wallet.Balance(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, 9900.0, balance)
}

func TestPlaceBetAfterClose(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, f.rounds.OnClockClose(ctx, snap.ID))

	_, err = f.bets.PlaceBet(ctx, 1001, snap.ID, domain.KindBig, nil, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rounddomain.ErrRoundNotOpen))
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	f.wallet.SetBalance(1001, 10)
	_, err = f.bets.PlaceBet(ctx, 1001, snap.ID, domain.KindBig, nil, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wallet.ErrInsufficientBalance))

	balance, _ := f.wallet.Balance(ctx, 1001)
	assert.Equal(t, 10.0, balance)
}

// Concurrent admissions racing the close signal: every accepted bet must
// reach a terminal status by the time the close call returns.
func TestPlaceBetConcurrentWithClose(t *testing.T) {
	f := newBetFixture(t)
	ctx := context.Background()

	snap, err := f.rounds.OpenNewRound(ctx, nil)
	require.NoError(t, err)

	const players = 32
	var wg sync.WaitGroup
	accepted := make(chan string, players)

	start := make(chan struct{})
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			<-start
			bet, err := f.bets.PlaceBet(ctx, userID, snap.ID, domain.KindBig, nil, 10)
			if err == nil {
				accepted <- bet.ID
			}
		}(uint64(2000 + i))
	}

	closeDone := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		closeDone <- f.rounds.OnClockClose(ctx, snap.ID)
	}()

	close(start)
	wg.Wait()
	close(accepted)
	require.NoError(t, <-closeDone)

	for betID := range accepted {
		bets, err := f.betRepo.ListByRound(ctx, snap.ID)
		require.NoError(t, err)
		for _, bet := range bets {
			if bet.ID == betID {
				assert.NotEqual(t, domain.StatusPending, bet.Status,
					"accepted bet %s left pending after close returned", betID)
			}
		}
	}
}
