package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlink/internal/application"
	"playlink/internal/delivery/api"
	"playlink/internal/delivery/discord"
	"playlink/internal/integration"
	"playlink/internal/repository"
	"playlink/pkg/config"
	"playlink/pkg/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func main() {
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.ReadEnvConfig(&cfg); err != nil {
		panic(err)
	}

	log := logger.NewLogger(&logger.Config{Level: cfg.LogLevel})

	var repos *repository.Repository

	switch cfg.StoreBackend {
	case "file":
		store, err := repository.NewLinkFile(cfg.StoreFile)
		if err != nil {
			log.Error("failed to open link store file: %s", err.Error())
			return
		}
		repos = repository.NewFileRepository(store)

	default:
		db, err := repository.NewPostgresDB(&cfg.Repo)
		if err != nil {
			log.Error("failed to init db: %s", err.Error())
			return
		}
		defer db.Close()

		log.Info("Running migrations...")
		if err := repository.RunMigrations(db, migrationFS); err != nil {
			log.Error("failed to run migrations: %s", err.Error())
			return
		}
		log.Info("Migrations applied successfully")

		repos = repository.NewRepository(&cfg.Repo, db)
	}

	audit := integration.NewWebhookNotifier(cfg.AuditWebhookURL, log)
	services := application.NewService(repos, cfg.OwnerUserID, cfg.SupportUserIDs, audit, log)

	bot := discord.NewBot(&cfg, services, log)
	ingress := api.NewServer(&cfg, services, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bot.Init(); err != nil {
		log.Error("failed to init bot: %s", err.Error())
		return
	}

	go func() {
		if err := bot.Run(ctx); err != nil {
			log.Error("bot run error: %s", err.Error())
		}
	}()

	go func() {
		if err := ingress.Run(); err != nil {
			log.Error("ingress run error: %s", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := ingress.Shutdown(shutdownCtx); err != nil {
		log.Error("ingress shutdown error: %s", err.Error())
	}

	bot.Stop()
	log.Info("Bot Stopped")
}
