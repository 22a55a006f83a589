package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frankieli/pc28_game/internal/config"
	gatewayHttp "github.com/frankieli/pc28_game/internal/modules/gateway/adapter/http"
	gatewayLocal "github.com/frankieli/pc28_game/internal/modules/gateway/adapter/local"
	"github.com/frankieli/pc28_game/internal/modules/gateway/ws"
	betDB "github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/db"
	betMemory "github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/memory"
	betRedis "github.com/frankieli/pc28_game/internal/modules/pc28/bet/repository/redis"
	betUseCase "github.com/frankieli/pc28_game/internal/modules/pc28/bet/usecase"
	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
	roundDomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	"github.com/frankieli/pc28_game/internal/modules/pc28/round/machine"
	roundDB "github.com/frankieli/pc28_game/internal/modules/pc28/round/repository/db"
	roundMemory "github.com/frankieli/pc28_game/internal/modules/pc28/round/repository/memory"
	roundUseCase "github.com/frankieli/pc28_game/internal/modules/pc28/round/usecase"
	walletModule "github.com/frankieli/pc28_game/internal/modules/wallet"
	betdomain "github.com/frankieli/pc28_game/internal/modules/pc28/bet/domain"
	"github.com/frankieli/pc28_game/pkg/logger"
)

func main() {
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	background := flag.Bool("d", false, "Run in background mode (disable console logging)")
	flag.Parse()

	logger.InitWithFile("logs/pc28/monolith.log", "info", "json", !*background)
	defer logger.Flush()

	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	fmt.Println("Starting PC28 Monolith... Logs are being written to logs/pc28/monolith.log (rotating)")
	logger.InfoGlobal().Msg("Starting PC28 Monolith...")

	// 1. Load Config
	cfg := config.LoadMonolithConfig()

	// 2. Initialize Infrastructure
	dbConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.PC28.Database.Host, cfg.PC28.Database.Port, cfg.PC28.Database.User,
		cfg.PC28.Database.Password, cfg.PC28.Database.Name)

	db, err := gorm.Open(postgres.Open(dbConnStr), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to ping database")
	}
	logger.InfoGlobal().Msg("Database connected")

	if err := db.AutoMigrate(&roundDomain.Round{}, &betdomain.Bet{}); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to migrate schema")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.PC28.Redis.Host, cfg.PC28.Redis.Port),
	})
	defer rdb.Close()

	// 3. Initialize Modules

	// Wallet (mock until the platform wallet is wired in)
	walletSvc := walletModule.NewMockService()
	logger.InfoGlobal().Msg("Wallet module initialized (Mock)")

	// Gateway hub, started early so broadcasters have a target
	hub := ws.NewHub(cfg.Gateway.ClientBufSize)
	runCtx, cancelRun := context.WithCancel(context.Background())
	go hub.Run(runCtx)
	broadcaster := gatewayLocal.NewBroadcaster(hub)

	// Round authority
	settings := cfg.PC28.Settings
	var roundRepo roundDomain.RoundRepository = roundMemory.NewRoundRepository()
	if cfg.PC28.RepoType == "db" {
		roundRepo = roundDB.NewRoundRepository(db)
	}
	roundsUC := roundUseCase.NewRoundUseCase(settings.RoundDurationSeconds, settings.BettingWindowSeconds, roundRepo, broadcaster)
	logger.InfoGlobal().Msg("Round authority initialized")

	// Bet admission and settlement
	oddsTable := draw.DefaultOdds()

	var betRepo betdomain.BetRepository
	if cfg.PC28.RepoType == "redis" {
		betRepo = betRedis.NewBetRepository(rdb)
		logger.InfoGlobal().Msg("Bet repository: Redis")
	} else {
		betRepo = betMemory.NewBetRepository()
		logger.InfoGlobal().Msg("Bet repository: Memory")
	}
	betOrderRepo := betDB.NewBetOrderRepository(db)

	betsUC := betUseCase.NewBetUseCase(betRepo, roundsUC, oddsTable, walletSvc, settings.MinStake, settings.MaxStake)
	settleUC := betUseCase.NewSettleUseCase(betRepo, betOrderRepo, walletSvc, broadcaster, settings.SettleWorkers)
	roundsUC.SetSettler(settleUC)
	logger.InfoGlobal().Msg("Bet modules initialized")

	// Snapshot pushed to every new WebSocket subscriber
	hub.SetSnapshot(func() ([]byte, bool) {
		snap, remaining, ok := roundsUC.Snapshot()
		if !ok {
			return nil, false
		}
		data, err := json.Marshal(roundDomain.Event{
			Type: roundDomain.EventSnapshot,
			Payload: map[string]interface{}{
				"round":             snap,
				"remaining_seconds": remaining,
			},
		})
		if err != nil {
			return nil, false
		}
		return data, true
	})

	// Round engine
	clock, err := machine.NewClock(settings.RoundDurationSeconds, settings.BettingWindowSeconds)
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Invalid round timing")
	}
	engine := roundUseCase.NewEngine(roundsUC, clock, settings.RestSeconds)

	var wg sync.WaitGroup
	if cfg.PC28.EngineAuto {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.Run(runCtx)
		}()
		logger.InfoGlobal().Msg("Round engine started")
	} else {
		logger.InfoGlobal().Msg("Round engine disabled, rounds open via admin API")
	}

	// 4. HTTP Server
	verifier := gatewayHttp.NewTokenVerifier(cfg.Gateway.JWT.Secret)
	handler := gatewayHttp.NewHandler(roundsUC, betsUC, oddsTable, hub, verifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Gateway.Server.Port,
		Handler: router,
	}

	logger.InfoGlobal().
		Str("port", cfg.Gateway.Server.Port).
		Str("ws_url", fmt.Sprintf("ws://localhost:%s/ws?token=YOUR_TOKEN", cfg.Gateway.Server.Port)).
		Msg("PC28 Monolith running")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoGlobal().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("HTTP server forced to shutdown")
	}

	logger.InfoGlobal().Msg("Waiting for current round to finish...")
	engine.Stop()
	wg.Wait()

	cancelRun()

	logger.InfoGlobal().Msg("Server exited properly")
}
