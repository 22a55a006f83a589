package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/memory"
)

func TestSaveAndList(t *testing.T) {
	repo := memory.NewBetRepository()
	ctx := context.Background()

	first := domain.NewBet(1, 100, domain.KindBig, 0, 50, 1.95, time.Now())
	second := domain.NewBet(1, 100, domain.KindSmall, 0, 30, 1.95, time.Now())
	other := domain.NewBet(2, 200, domain.KindOdd, 0, 10, 1.95, time.Now())
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, other))

	byUser, err := repo.ListByUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, second.ID, byUser[0].ID, "newest first")
	assert.Equal(t, first.ID, byUser[1].ID)

	byRound, err := repo.ListByRound(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byRound, 2)

	empty, err := repo.ListByUser(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTakeForSettlementDrainsOnce(t *testing.T) {
	repo := memory.NewBetRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		bet := domain.NewBet(1, uint64(100+i), domain.KindBig, 0, 10, 1.95, time.Now())
		require.NoError(t, repo.Save(ctx, bet))
	}

	batch, err := repo.TakeForSettlement(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, batch, 5)

	// Second take is empty: each bet is handed out exactly once
	batch, err = repo.TakeForSettlement(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, batch)

	// History survives the take
	byRound, err := repo.ListByRound(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byRound, 5)
}

func TestSettlementIsolatedFromReaders(t *testing.T) {
	repo := memory.NewBetRepository()
	ctx := context.Background()

	bet := domain.NewBet(1, 100, domain.KindBig, 0, 50, 1.95, time.Now())
	require.NoError(t, repo.Save(ctx, bet))

	batch, err := repo.TakeForSettlement(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	// Mutating the taken copy is invisible until MarkSettled writes it back
	require.NoError(t, batch[0].Settle(true, 97.5, time.Now()))
	listed, err := repo.ListByUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.StatusPending, listed[0].Status)
	assert.Zero(t, listed[0].WinAmount)

	require.NoError(t, repo.MarkSettled(ctx, batch[0]))
	listed, err = repo.ListByUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWon, listed[0].Status)
	assert.Equal(t, 97.5, listed[0].WinAmount)
}

func TestListDuringSettlementDoesNotRace(t *testing.T) {
	repo := memory.NewBetRepository()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		bet := domain.NewBet(1, 100, domain.KindBig, 0, 10, 1.95, time.Now())
		require.NoError(t, repo.Save(ctx, bet))
	}

	batch, err := repo.TakeForSettlement(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 50)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, bet := range batch {
			_ = bet.Settle(true, bet.Amount*bet.Odds, time.Now())
			_ = repo.MarkSettled(ctx, bet)
		}
	}()

	for i := 0; i < 20; i++ {
		listed, err := repo.ListByUser(ctx, 100)
		require.NoError(t, err)
		for _, b := range listed {
			// Money fields of a listed bet are consistent with its status
			if b.Status == domain.StatusPending {
				assert.Zero(t, b.WinAmount)
			}
		}
	}
	<-done
}
