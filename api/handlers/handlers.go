package handlers

import (
	"github.com/ktnshm/receipt-scanner/internal/service/receipt"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
	"github.com/ktnshm/receipt-scanner/pkg/queue"
	"github.com/ktnshm/receipt-scanner/pkg/storage"
)

type Handlers struct {
	Receipt *ReceiptHandler
}

func NewHandlers(
	svc receipt.Processor,
	store storage.Storage,
	q queue.Queue,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Receipt: NewReceiptHandler(svc, store, q, log),
	}
}
