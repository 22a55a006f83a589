package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Bet{}))
	return gdb
}

func settledBet(roundID, userID uint64, amount float64) *domain.Bet {
	bet := domain.NewBet(roundID, userID, domain.KindBig, 0, amount, 1.95, time.Now())
	bet.Settle(true, amount*1.95, time.Now())
	return bet
}

func TestBatchCreate(t *testing.T) {
	repo := db.NewBetOrderRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.BatchCreate(ctx, nil))

	bets := []*domain.Bet{
		settledBet(1, 100, 50),
		settledBet(1, 200, 30),
		settledBet(1, 300, 20),
	}
	require.NoError(t, repo.BatchCreate(ctx, bets))

	stored, err := repo.ListByUser(ctx, 100, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, bets[0].ID, stored[0].ID)
	assert.Equal(t, domain.StatusWon, stored[0].Status)
	assert.Equal(t, 97.5, stored[0].WinAmount)
}

func TestBatchCreateIdempotent(t *testing.T) {
	repo := db.NewBetOrderRepository(newTestDB(t))
	ctx := context.Background()

	bet := settledBet(1, 100, 50)
	require.NoError(t, repo.BatchCreate(ctx, []*domain.Bet{bet}))

	// A retried batch with the same bet must not duplicate the archive
	require.NoError(t, repo.BatchCreate(ctx, []*domain.Bet{bet}))

	stored, err := repo.ListByUser(ctx, 100, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
