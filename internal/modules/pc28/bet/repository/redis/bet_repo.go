// Package redis provides Redis-backed bet repositories
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
)

const settlementBatch = 100

// BetRepository implements domain.BetRepository using Redis. Bets live in
// a per-round hash keyed by bet ID, with a settlement queue list and a
// per-user history list alongside.
type BetRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBetRepository creates a new Redis bet repository
func NewBetRepository(rdb *redis.Client) *BetRepository {
	return &BetRepository{
		rdb: rdb,
		ttl: 24 * time.Hour,
	}
}

func dataKey(roundID uint64) string  { return fmt.Sprintf("pc28:bet_data:%d", roundID) }
func queueKey(roundID uint64) string { return fmt.Sprintf("pc28:settlement_queue:%d", roundID) }
func userKey(userID uint64) string   { return fmt.Sprintf("pc28:user_bets:%d", userID) }

func (r *BetRepository) Save(ctx context.Context, bet *domain.Bet) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()

	// 1. Bet data hash
	dk := dataKey(bet.RoundID)
	pipe.HSet(ctx, dk, bet.ID, data)
	pipe.Expire(ctx, dk, r.ttl)

	// 2. Settlement queue
	qk := queueKey(bet.RoundID)
	pipe.RPush(ctx, qk, bet.ID)
	pipe.Expire(ctx, qk, r.ttl)

	// 3. User history, newest first
	uk := userKey(bet.UserID)
	pipe.LPush(ctx, uk, data)
	pipe.LTrim(ctx, uk, 0, 199)
	pipe.Expire(ctx, uk, r.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *BetRepository) ListByUser(ctx context.Context, userID uint64) ([]*domain.Bet, error) {
	items, err := r.rdb.LRange(ctx, userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	bets := make([]*domain.Bet, 0, len(items))
	for _, item := range items {
		var bet domain.Bet
		if err := json.Unmarshal([]byte(item), &bet); err != nil {
			continue
		}
		bets = append(bets, &bet)
	}
	return bets, nil
}

func (r *BetRepository) ListByRound(ctx context.Context, roundID uint64) ([]*domain.Bet, error) {
	dataMap, err := r.rdb.HGetAll(ctx, dataKey(roundID)).Result()
	if err != nil {
		return nil, err
	}

	bets := make([]*domain.Bet, 0, len(dataMap))
	for _, data := range dataMap {
		var bet domain.Bet
		if err := json.Unmarshal([]byte(data), &bet); err != nil {
			continue
		}
		bets = append(bets, &bet)
	}
	return bets, nil
}

func (r *BetRepository) TakeForSettlement(ctx context.Context, roundID uint64) ([]*domain.Bet, error) {
	betIDs, err := r.rdb.LPopCount(ctx, queueKey(roundID), settlementBatch).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(betIDs) == 0 {
		return nil, nil
	}

	dataList, err := r.rdb.HMGet(ctx, dataKey(roundID), betIDs...).Result()
	if err != nil {
		return nil, err
	}

	bets := make([]*domain.Bet, 0, len(dataList))
	for _, data := range dataList {
		if data == nil {
			continue
		}
		strData, ok := data.(string)
		if !ok {
			continue
		}
		var bet domain.Bet
		if err := json.Unmarshal([]byte(strData), &bet); err != nil {
			continue
		}
		bets = append(bets, &bet)
	}
	return bets, nil
}

func (r *BetRepository) MarkSettled(ctx context.Context, bet *domain.Bet) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, dataKey(bet.RoundID), bet.ID, data).Err()
}
