package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskboard/db"
	"taskboard/db/migrations"
	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/scheduler"
	"taskboard/internal/server"
	"taskboard/internal/service"
)

func main() {
	os.Exit(start())
}

func start() int {
	config, err := config.NewConfig(os.Args[1:])
	if err != nil {
		zap.L().Info("error create config", zap.Error(err))
		return 1
	}

	if err := logger.Initialize(config.LogLevel); err != nil {
		zap.L().Info("error init logger", zap.Error(err))
		return 1
	}
	defer zap.L().Sync()

	dbConn, err := sqlx.Connect("postgres", config.PostgresConn)
	if err != nil {
		zap.L().Error("failed to connect to db", zap.Error(err))
		return 1
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		zap.L().Error("failed to migrate db", zap.Error(err))
		return 1
	}

	var (
		tokens = auth.NewTokens(config.JWTSecret, config.JWTTTL)
		svc    = service.New(db.NewStorage(dbConn), tokens, service.Options{BindingCodeTTL: config.BindingCodeTTL})
		server = server.NewServer(config, svc, tokens)
		jobs   = scheduler.NewRunner()
	)

	if err := jobs.Register("purge-binding-codes", config.CleanupInterval, svc.PurgeExpiredBindingCodes); err != nil {
		zap.L().Error("failed to register job", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := server.Start(); err != nil {
			zap.L().Error("error starting server", zap.Error(err))
			return err
		}
		return nil
	})

	jobs.Start(ctx)

	<-ctx.Done()

	eg.Go(func() error {
		if err := server.Stop(); err != nil {
			zap.L().Error("error stopping server", zap.Error(err))
			return err
		}
		return nil
	})

	eg.Go(func() error {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return jobs.Stop(stopCtx)
	})

	if err := eg.Wait(); err != nil {
		return 1
	}

	return 0
}
