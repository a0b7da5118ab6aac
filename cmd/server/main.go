package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ktnshm/receipt-scanner/api/handlers"
	"github.com/ktnshm/receipt-scanner/api/routes"
	"github.com/ktnshm/receipt-scanner/config"
	"github.com/ktnshm/receipt-scanner/internal/service/receipt"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
	"github.com/ktnshm/receipt-scanner/pkg/queue"
	"github.com/ktnshm/receipt-scanner/pkg/storage"
)

func main() {
	logCfg, err := config.LoadLoggerConfig("configs/logger.yaml")
	if err != nil {
		panic(err)
	}
	log, err := logger.NewLogger(logger.WithConfig(logCfg))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := receipt.GetService(ctx, log)
	if err != nil {
		log.Fatal("failed to build receipt service", logger.Error(err))
	}
	caps := svc.Capabilities()
	log.Info("engines detected",
		logger.Bool("ocr", caps.OCR),
		logger.Bool("generative", caps.Generative),
		logger.Bool("vision", caps.Vision),
		logger.Bool("heic", caps.HEIC),
	)

	// Batch processing is optional infrastructure; the synchronous API
	// works without it.
	var store storage.Storage
	var q queue.Queue
	if s, err := storage.NewStorage(storage.StorageTypeMinio, log); err != nil {
		log.Warn("object storage unavailable, batch endpoints disabled", logger.Error(err))
	} else if aq, err := queue.GetQueue(); err != nil {
		log.Warn("queue unavailable, batch endpoints disabled", logger.Error(err))
	} else {
		store, q = s, aq
	}

	h := handlers.NewHandlers(svc, store, q, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    config.GetAppConfig().ServerAddr,
		Handler: r,
	}

	go func() {
		log.Info("server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
	}
}
