package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/config"
	"github.com/iliyamo/equipment-lending/internal/database"
	"github.com/iliyamo/equipment-lending/internal/handler"
	"github.com/iliyamo/equipment-lending/internal/logger"
	"github.com/iliyamo/equipment-lending/internal/queue"
	"github.com/iliyamo/equipment-lending/internal/repository"
	"github.com/iliyamo/equipment-lending/internal/router"
	"github.com/iliyamo/equipment-lending/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a production one for the fatal line.
		zap.Must(zap.NewProduction()).Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn("read .env", zap.Error(envErr))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var events service.EventPublisher = queue.NopPublisher{}
	qc := config.LoadQueueConfig()
	if qc.Enabled {
		pub := queue.NewPublisher(qc.URL, qc.Queue, log)
		defer pub.Close()
		events = pub

		consumer := &queue.AuditConsumer{URL: qc.URL, Queue: qc.Queue, Dir: qc.AuditDir, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer exited", zap.Error(err))
			}
		}()
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	ec := config.LoadEngineConfig()
	engine := service.New(repository.NewSQLStore(db), events, log, service.Options{
		StrictTransitions: ec.StrictTransitions,
		TxTimeout:         ec.TxTimeout,
	})
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	e := router.New(router.Deps{
		Log:       log,
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		DB:        db,
		Auth:      handler.NewAuthHandler(cfg, users, tokens, log),
		Equipment: handler.NewEquipmentHandler(engine, log),
		Requests:  handler.NewRequestHandler(engine, log),
		Users:     handler.NewUserHandler(users, tokens, cfg.BcryptCost, log),
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.Bool("strict_transitions", ec.StrictTransitions), zap.Bool("queue", qc.Enabled))
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
