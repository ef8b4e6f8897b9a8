package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	auction "position-auction/internal/auctionService"
	"position-auction/internal/chat"
	"position-auction/internal/config"
	"position-auction/internal/ledger"
	"position-auction/internal/notify"
	"position-auction/internal/repository"
	"position-auction/internal/server"
	"position-auction/internal/sweeper"
	"position-auction/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(cfg)
	if err != nil {
		utils.Fatal("failed to initialize store", map[string]any{"error": err.Error()})
	}

	ledg := ledger.NewMemoryLedger(ledger.WithDefaultBalance(cfg.SeedBalanceDecimal()))

	hub := notify.NewHub()
	notifier, closeNotifiers, err := buildNotifier(cfg, hub)
	if err != nil {
		utils.Fatal("failed to initialize notifiers", map[string]any{"error": err.Error()})
	}
	defer closeNotifiers()

	auctionSvc := auction.NewAuctionService(store, ledg, notifier, auction.Config{
		MinIncrement:    cfg.MinIncrementDecimal(),
		LedgerTimeout:   cfg.LedgerTimeout,
		RecentBidsLimit: cfg.RecentBidsLimit,
	})
	chatSvc := chat.NewChatService(store, store, notifier, chat.WithTypingTTL(cfg.TypingTTL))

	router := server.SetupRouter(auctionSvc, chatSvc, hub)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	sw := sweeper.New(store, auctionSvc, cfg.FinalizeInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sw.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Fatal("server exited with error", map[string]any{"error": err.Error()})
	}
	utils.Info("server stopped", nil)
}

// store is the union of the persistence interfaces the services consume.
type store interface {
	repository.AuctionStore
	repository.ChatStore
}

func buildStore(cfg config.Config) (store, error) {
	if cfg.DatabaseURL == "" {
		utils.Info("using in-memory store", nil)
		return repository.NewMemoryStore(), nil
	}
	utils.Info("using postgres store", nil)
	gs, err := repository.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return gs, nil
}

func buildNotifier(cfg config.Config, hub *notify.Hub) (notify.Notifier, func(), error) {
	notifiers := notify.Multi{hub}
	var closers []func()

	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, amqpNotifier)
		closers = append(closers, func() {
			if err := amqpNotifier.Close(); err != nil {
				utils.Warn("amqp close failed", map[string]any{"error": err.Error()})
			}
		})
		utils.Info("amqp event mirroring enabled", map[string]any{"exchange": cfg.AMQPExchange})
	}

	if cfg.RedisAddr != "" {
		redisNotifier := notify.NewRedisNotifier(cfg.RedisAddr, cfg.RedisPassword)
		notifiers = append(notifiers, redisNotifier)
		closers = append(closers, func() {
			if err := redisNotifier.Close(); err != nil {
				utils.Warn("redis close failed", map[string]any{"error": err.Error()})
			}
		})
		utils.Info("redis event mirroring enabled", map[string]any{"addr": cfg.RedisAddr})
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return notifiers, closeAll, nil
}
