package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatewayhttp "github.com/frankieli/pc28_game/internal/modules/gateway/adapter/http"
	"github.com/frankieli/pc28_game/internal/modules/gateway/ws"
	betmemory "github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/memory"
	betusecase "github.com/frankieli/pc28_game/internal/modules/pc28/bet/usecase"
	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
	rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	roundmemory "github.com/frankieli/pc28_game/internal/modules/pc28/round/repository/memory"
	roundusecase "github.com/frankieli/pc28_game/internal/modules/pc28/round/usecase"
	"github.com/frankieli/pc28_game/internal/modules/wallet"
	"github.com/frankieli/pc28_game/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init(logger.Config{Level: "error", Format: "console"})
}

type fixture struct {
	router   *gin.Engine
	rounds   *roundusecase.RoundUseCase
	verifier *gatewayhttp.TokenVerifier
}

// NullBroadcaster swallows all events
type NullBroadcaster struct{}

func (NullBroadcaster) Broadcast(event rounddomain.Event)                  {}
func (NullBroadcaster) SendToUser(userID uint64, event rounddomain.Event) {}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	broadcaster := NullBroadcaster{}
	rounds := roundusecase.NewRoundUseCase(60, 55, roundmemory.NewRoundRepository(), broadcaster)
	betRepo := betmemory.NewBetRepository()
	walletSvc := wallet.NewMockService()
	oddsTable := draw.DefaultOdds()

	bets := betusecase.NewBetUseCase(betRepo, rounds, oddsTable, walletSvc, 1, 10000)
	settle := betusecase.NewSettleUseCase(betRepo, nil, walletSvc, broadcaster, 4)
	rounds.SetSettler(settle)

	hub := ws.NewHub(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	verifier := gatewayhttp.NewTokenVerifier("test-secret")
	handler := gatewayhttp.NewHandler(rounds, bets, oddsTable, hub, verifier)

	router := gin.New()
	handler.RegisterRoutes(router)

	return &fixture{router: router, rounds: rounds, verifier: verifier}
}

func (f *fixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) playerToken(t *testing.T, userID uint64) string {
	t.Helper()
	token, err := f.verifier.Sign(userID, gatewayhttp.RolePlayer, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	token, err := f.verifier.Sign(1, gatewayhttp.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return token
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Kind
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentRound(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/games/pc28/round/current", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	snap, err := f.rounds.OpenNewRound(context.Background(), nil)
	require.NoError(t, err)

	w = f.request(t, http.MethodGet, "/api/v1/games/pc28/round/current", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Round     rounddomain.Snapshot `json:"round"`
		Remaining int                  `json:"remaining_seconds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, snap.ID, body.Round.ID)
	assert.Equal(t, rounddomain.StatusOpen, body.Round.Status)
	assert.Greater(t, body.Remaining, 0)
}

func TestOdds(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/games/pc28/odds", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Odds map[string]float64 `json:"odds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 9.8, body.Odds["number"])
	assert.Equal(t, 1.95, body.Odds["big"])
}

func TestPlaceBetRequiresAuth(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/games/pc28/bets", "", gin.H{
		"round_id": 1, "bet_type": "big", "amount": 100,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.request(t, http.MethodPost, "/api/v1/games/pc28/bets", "not-a-token", gin.H{
		"round_id": 1, "bet_type": "big", "amount": 100,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlaceBetAndList(t *testing.T) {
	f := newFixture(t)
	snap, err := f.rounds.OpenNewRound(context.Background(), nil)
	require.NoError(t, err)

	token := f.playerToken(t, 1001)
	w := f.request(t, http.MethodPost, "/api/v1/games/pc28/bets", token, gin.H{
		"round_id": snap.ID, "bet_type": "number", "bet_value": 14, "amount": 100,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Bet struct {
			ID      string  `json:"id"`
			UserID  uint64  `json:"user_id"`
			Odds    float64 `json:"odds"`
			Status  string  `json:"status"`
			RoundID uint64  `json:"round_id"`
		} `json:"bet"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Bet.ID)
	assert.Equal(t, uint64(1001), body.Bet.UserID)
	assert.Equal(t, 9.8, body.Bet.Odds)
	assert.Equal(t, "pending", body.Bet.Status)

	w = f.request(t, http.MethodGet, "/api/v1/games/pc28/bets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Bets []json.RawMessage `json:"bets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Bets, 1)
}

func TestPlaceBetErrorMapping(t *testing.T) {
	f := newFixture(t)
	snap, err := f.rounds.OpenNewRound(context.Background(), nil)
	require.NoError(t, err)
	token := f.playerToken(t, 1001)

	// Bad bet type
	w := f.request(t, http.MethodPost, "/api/v1/games/pc28/bets", token, gin.H{
		"round_id": snap.ID, "bet_type": "rainbow", "amount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidParam", errorKind(t, w))

	// Stake out of bounds
	w = f.request(t, http.MethodPost, "/api/v1/games/pc28/bets", token, gin.H{
		"round_id": snap.ID, "bet_type": "big", "amount": 99999,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidStake", errorKind(t, w))

	// Round no longer open
	require.NoError(t, f.rounds.OnClockClose(context.Background(), snap.ID))
	w = f.request(t, http.MethodPost, "/api/v1/games/pc28/bets", token, gin.H{
		"round_id": snap.ID, "bet_type": "big", "amount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "RoundNotOpen", errorKind(t, w))
}

func TestAdminRequiresRole(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/admin/rounds/open", f.playerToken(t, 1001), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.request(t, http.MethodPost, "/api/v1/admin/rounds/open", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOpenAndVoidRound(t *testing.T) {
	f := newFixture(t)
	token := f.adminToken(t)

	w := f.request(t, http.MethodPost, "/api/v1/admin/rounds/open", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Round rounddomain.Snapshot `json:"round"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotZero(t, body.Round.ID)

	// Opening again conflicts while the first is open
	w = f.request(t, http.MethodPost, "/api/v1/admin/rounds/open", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidState", errorKind(t, w))

	path := fmt.Sprintf("/api/v1/admin/rounds/%d/void", body.Round.ID)
	w = f.request(t, http.MethodPost, path, token, gin.H{"reason": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap, _, ok := f.rounds.Snapshot()
	require.True(t, ok)
	assert.Equal(t, rounddomain.StatusVoid, snap.Status)
}

func TestAdminUpdateOdds(t *testing.T) {
	f := newFixture(t)
	token := f.adminToken(t)

	w := f.request(t, http.MethodPut, "/api/v1/admin/odds", token, gin.H{"big": 1.90})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Odds map[string]float64 `json:"odds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1.90, body.Odds["big"])

	w = f.request(t, http.MethodPut, "/api/v1/admin/odds", token, gin.H{"rainbow": 5.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoundHistoryEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		snap, err := f.rounds.OpenNewRound(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, f.rounds.OnClockClose(ctx, snap.ID))
	}

	w := f.request(t, http.MethodGet, "/api/v1/games/pc28/history?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rounds []rounddomain.Snapshot `json:"rounds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rounds, 2)
	for _, r := range body.Rounds {
		assert.Equal(t, rounddomain.StatusSettled, r.Status)
	}
}
