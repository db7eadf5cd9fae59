package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskboard/db"
	"taskboard/db/migrations"
	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/service"
	"taskboard/internal/telegram"
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
	if err := config.ValidateBot(); err != nil {
		zap.L().Info("error bot config", zap.Error(err))
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

	// оба бинарника могут стартовать первыми, goose пропускает уже применённые миграции
	if err := migrations.Run(dbConn.DB); err != nil {
		zap.L().Error("failed to migrate db", zap.Error(err))
		return 1
	}

	tokens := auth.NewTokens(config.JWTSecret, config.JWTTTL)
	svc := service.New(db.NewStorage(dbConn), tokens, service.Options{BindingCodeTTL: config.BindingCodeTTL})

	b, err := telegram.NewBot(svc, config.BotToken)
	if err != nil {
		zap.L().Error("failed to create bot", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		b.Start(ctx)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return 1
	}
	return 0
}
