package main

import (
	"context"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/repository"
	"github.com/noah-isme/school-diary-api/internal/service"
	"github.com/noah-isme/school-diary-api/pkg/config"
	"github.com/noah-isme/school-diary-api/pkg/database"
	"github.com/noah-isme/school-diary-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	accounts := service.NewAccountService(repository.NewUserRepository(db), service.NewValidator(), logr)
	cli := newCommandLine(accounts, func(command string) error {
		return database.Migrate(db.DB, command)
	}, os.Stdout)

	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logr.Error("admin command failed", zap.Error(err))
		}
		_ = db.Close()
		_ = logr.Sync()
		os.Exit(1)
	}
}
