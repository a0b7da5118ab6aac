package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ktnshm/receipt-scanner/config"
	"github.com/ktnshm/receipt-scanner/internal/service/receipt"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
	"github.com/ktnshm/receipt-scanner/pkg/queue"
	"github.com/ktnshm/receipt-scanner/pkg/storage"
	"github.com/ktnshm/receipt-scanner/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := receipt.GetService(ctx, log)
	if err != nil {
		log.Error("failed to build receipt service", logger.Error(err))
		os.Exit(1)
	}

	store, err := storage.NewStorage(storage.StorageTypeMinio, log)
	if err != nil {
		log.Error("failed to connect to object storage", logger.Error(err))
		os.Exit(1)
	}
	q, err := queue.GetQueue()
	if err != nil {
		log.Error("failed to connect to queue", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := config.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: redisCfg.Concurrency,
		Queues:      map[string]int{"default": 1},
	}

	receiptWorker, err := worker.NewReceiptWorker(workerCfg, svc, store, q, log)
	if err != nil {
		log.Error("failed to create receipt worker", logger.Error(err))
		os.Exit(1)
	}
	if err := receiptWorker.Start(ctx); err != nil {
		log.Error("failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down worker")
	receiptWorker.Stop()
	log.Info("worker stopped")
}
