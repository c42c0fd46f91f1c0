package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/spin-match/spin-match/internal/api/http"
	"github.com/spin-match/spin-match/internal/application/engine"
	"github.com/spin-match/spin-match/internal/application/lifecycle"
	"github.com/spin-match/spin-match/internal/application/liveness"
	appPairing "github.com/spin-match/spin-match/internal/application/pairing"
	appQueue "github.com/spin-match/spin-match/internal/application/queue"
	"github.com/spin-match/spin-match/internal/application/sweeper"
	"github.com/spin-match/spin-match/internal/application/vote"
	"github.com/spin-match/spin-match/internal/clock"
	"github.com/spin-match/spin-match/internal/config"
	"github.com/spin-match/spin-match/internal/domain/compat"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	domainQueue "github.com/spin-match/spin-match/internal/domain/queue"
	"github.com/spin-match/spin-match/internal/infrastructure/events"
	"github.com/spin-match/spin-match/internal/infrastructure/heartbeat"
	"github.com/spin-match/spin-match/internal/infrastructure/keylock"
	"github.com/spin-match/spin-match/internal/infrastructure/memstore"
	"github.com/spin-match/spin-match/internal/infrastructure/postgres"
)

type repositories struct {
	participants participant.Repository
	entries      domainQueue.Repository
	pairings     domainPairing.Repository
	history      domainPairing.HistoryRepository
	fairness     participant.FairnessRepository
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	var repos repositories
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		repos = repositories{
			participants: postgres.NewParticipantRepository(pool),
			entries:      postgres.NewQueueRepository(pool),
			pairings:     postgres.NewPairingRepository(pool),
			history:      postgres.NewHistoryRepository(pool),
			fairness:     postgres.NewFairnessRepository(pool),
		}
		logger.Info().Msg("using postgres backend")
	} else {
		repos = repositories{
			participants: memstore.NewParticipantStore(),
			entries:      memstore.NewQueueStore(),
			pairings:     memstore.NewPairingStore(),
			history:      memstore.NewHistoryStore(),
			fairness:     memstore.NewFairnessStore(),
		}
		logger.Info().Msg("using in-memory backend")
	}

	hbStore := heartbeat.NewStore(heartbeat.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	if err := hbStore.Ping(ctx); err != nil {
		log.Fatalf("redis error: %v", err)
	}

	rule, err := compat.NewRule(cfg.CompatRule)
	if err != nil {
		log.Fatalf("compat rule error: %v", err)
	}

	clk := clock.Real{}
	hub := events.NewHub()

	lifecycleSvc := lifecycle.NewService(repos.participants, hub, clk, logger)
	queueSvc := appQueue.NewService(repos.entries, repos.pairings, repos.participants, repos.fairness, clk, logger)
	resolverSvc := vote.NewService(repos.pairings, repos.history, repos.fairness, queueSvc, lifecycleSvc,
		keylock.NewMap(), hub, clk, cfg.BoostIncrement, cfg.BoostCap, logger)
	livenessSvc := liveness.NewService(hbStore, repos.participants, repos.pairings, queueSvc, resolverSvc,
		lifecycleSvc, clk, cfg.StaleAfter, cfg.OfflineAfter, cfg.CooldownAfter, logger)
	matcherSvc := appPairing.NewService(queueSvc, repos.pairings, repos.history, repos.fairness, lifecycleSvc,
		livenessSvc, keylock.NewMap(), rule, hub, clk, cfg.VoteWindow, logger)
	engineSvc := engine.NewService(repos.participants, repos.pairings, queueSvc, matcherSvc, resolverSvc,
		livenessSvc, lifecycleSvc, clk, cfg.CooldownAfter, logger)

	runner := sweeper.NewRunner(repos.participants, repos.entries, repos.pairings, queueSvc, matcherSvc,
		resolverSvc, livenessSvc, lifecycleSvc, clk, cfg.MatchInterval, cfg.SweepInterval, logger)
	loopCtx, stopLoops := context.WithCancel(ctx)
	runner.Start(loopCtx)

	apiServer := httpapi.NewServer(engineSvc, hub, hbStore)
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopLoops()
	runner.Wait()
	hub.Stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
