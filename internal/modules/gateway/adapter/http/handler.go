// Package http exposes the game's REST and WebSocket surface through gin.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/frankieli/pc28_game/internal/modules/gateway/ws"
	betdomain "github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	betusecase "github.com/frankieli/pc28_game/internal/modules/pc28/bet/usecase"
	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
	rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	roundusecase "github.com/frankieli/pc28_game/internal/modules/pc28/round/usecase"
	"github.com/frankieli/pc28_game/pkg/logger"
	"github.com/frankieli/pc28_game/pkg/metrics"
)

// Handler handles HTTP and WebSocket requests for the game gateway
type Handler struct {
	rounds *roundusecase.RoundUseCase
	bets   *betusecase.BetUseCase
	odds   *draw.OddsTable
	hub    *ws.Hub
	auth   *TokenVerifier
}

// NewHandler creates a new gateway handler
func NewHandler(rounds *roundusecase.RoundUseCase, bets *betusecase.BetUseCase, odds *draw.OddsTable, hub *ws.Hub, auth *TokenVerifier) *Handler {
	return &Handler{
		rounds: rounds,
		bets:   bets,
		odds:   odds,
		hub:    hub,
		auth:   auth,
	}
}

// RegisterRoutes registers all gateway routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws", h.HandleWebSocket)

	api := r.Group("/api/v1")

	game := api.Group("/games/pc28")
	game.GET("/round/current", h.CurrentRound)
	game.GET("/history", h.RoundHistory)
	game.GET("/odds", h.Odds)

	authed := game.Group("")
	authed.Use(h.AuthRequired())
	authed.POST("/bets", h.PlaceBet)
	authed.GET("/bets", h.ListBets)

	admin := api.Group("/admin")
	admin.Use(h.AuthRequired(), h.AdminRequired())
	admin.POST("/rounds/open", h.AdminOpenRound)
	admin.POST("/rounds/:id/void", h.AdminVoidRound)
	admin.GET("/odds", h.Odds)
	admin.PUT("/odds", h.AdminUpdateOdds)
}

func errorBody(kind, message string) gin.H {
	return gin.H{"error": gin.H{"kind": kind, "message": message}}
}

// writeError maps kinded domain errors onto HTTP statuses
func writeError(c *gin.Context, err error) {
	var roundErr *rounddomain.Error
	if errors.As(err, &roundErr) {
		status := http.StatusBadRequest
		if roundErr.Kind == rounddomain.KindInvalidState {
			status = http.StatusConflict
		}
		c.JSON(status, errorBody(roundErr.Kind, roundErr.Message))
		return
	}

	var betErr *betdomain.Error
	if errors.As(err, &betErr) {
		status := http.StatusBadRequest
		if betErr.Kind == betdomain.KindAlreadySettled {
			status = http.StatusConflict
		}
		c.JSON(status, errorBody(betErr.Kind, betErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError, errorBody("Internal", "internal error"))
}

// Health reports liveness and whether admission is halted
func (h *Handler) Health(c *gin.Context) {
	if h.rounds.Halted() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "halted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CurrentRound returns the open round snapshot and remaining seconds
func (h *Handler) CurrentRound(c *gin.Context) {
	snap, remaining, ok := h.rounds.Snapshot()
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("NoRound", "no round in progress"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"round":             snap,
		"remaining_seconds": remaining,
	})
}

// RoundHistory returns recently settled rounds, newest first
func (h *Handler) RoundHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	rounds, err := h.rounds.History(c.Request.Context(), limit)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("Failed to load round history")
		writeError(c, err)
		return
	}

	snaps := make([]rounddomain.Snapshot, 0, len(rounds))
	for _, r := range rounds {
		snaps = append(snaps, r.Snapshot())
	}
	c.JSON(http.StatusOK, gin.H{"rounds": snaps})
}

// Odds returns the current odds table
func (h *Handler) Odds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"odds": h.odds.Snapshot()})
}

// PlaceBetRequest is the bet placement payload
type PlaceBetRequest struct {
	RoundID  uint64  `json:"round_id" binding:"required"`
	BetType  string  `json:"bet_type" binding:"required"`
	BetValue *int    `json:"bet_value"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

// PlaceBet admits a bet against the open round
func (h *Handler) PlaceBet(c *gin.Context) {
	var req PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("PlaceBet: invalid request body")
		c.JSON(http.StatusBadRequest, errorBody(betdomain.KindInvalidParam, err.Error()))
		return
	}

	bet, err := h.bets.PlaceBet(c.Request.Context(), currentUserID(c), req.RoundID,
		betdomain.Kind(req.BetType), req.BetValue, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bet": bet})
}

// ListBets returns the caller's bets, newest first
func (h *Handler) ListBets(c *gin.Context) {
	bets, err := h.bets.ListBets(c.Request.Context(), currentUserID(c))
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("Failed to list bets")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": bets})
}

// AdminOpenRoundRequest optionally carries a pre-drawn keno sequence
type AdminOpenRoundRequest struct {
	KenoData []int `json:"keno_data"`
}

// AdminOpenRound opens a round manually, for engines running without
// the automatic scheduler
func (h *Handler) AdminOpenRound(c *gin.Context) {
	var req AdminOpenRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, errorBody(betdomain.KindInvalidParam, err.Error()))
		return
	}

	snap, err := h.rounds.OpenNewRound(c.Request.Context(), req.KenoData)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": snap})
}

// AdminVoidRound cancels a round and refunds its bets
func (h *Handler) AdminVoidRound(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(betdomain.KindInvalidParam, "invalid round id"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, errorBody(betdomain.KindInvalidParam, err.Error()))
		return
	}
	if req.Reason == "" {
		req.Reason = "admin void"
	}

	if err := h.rounds.VoidRound(c.Request.Context(), roundID, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AdminUpdateOdds applies partial odds changes
func (h *Handler) AdminUpdateOdds(c *gin.Context) {
	var req map[string]float64
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(betdomain.KindInvalidParam, err.Error()))
		return
	}

	if err := h.odds.Update(req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(betdomain.KindInvalidParam, err.Error()))
		return
	}
	logger.Info(c.Request.Context()).Interface("changes", req).Msg("Odds updated")
	c.JSON(http.StatusOK, gin.H{"odds": h.odds.Snapshot()})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades a subscriber connection. A valid token makes
// the subscription personal; without one the client still receives the
// public round stream.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	ctx := logger.WebSocketContext(c.Request)

	var userID uint64
	if token := c.Query("token"); token != "" {
		id, _, err := h.auth.ValidateToken(token)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("WebSocket token rejected")
			c.String(http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID = id
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	logger.Info(ctx).
		Uint64("user_id", userID).
		Str("remote_addr", c.Request.RemoteAddr).
		Msg("WebSocket connected")

	client := h.hub.Subscribe(conn, userID)
	go client.WritePump()
	go client.ReadPump()
}
