package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/vbonduro/daybook/internal/config"
	"github.com/vbonduro/daybook/internal/db"
	"github.com/vbonduro/daybook/internal/logging"
	"github.com/vbonduro/daybook/internal/media/local"
	"github.com/vbonduro/daybook/internal/service"
	"github.com/vbonduro/daybook/internal/store"
	"github.com/vbonduro/daybook/internal/web"
	"github.com/vbonduro/daybook/internal/web/templates"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	mediaStg, err := local.New(cfg.MediaPath)
	if err != nil {
		logger.Error("failed to initialize media store", "error", err)
		return
	}

	journal := service.NewJournalService(store.NewEntryStore(database), mediaStg, logger)
	server := web.NewServer(journal, templates.FS, logger, int64(cfg.MaxUploadMB)<<20)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
