package receipt

import (
	"context"
	"image"

	"github.com/ktnshm/receipt-scanner/internal/models"
)

// Processor is the receipt extraction pipeline behind the HTTP layer.
type Processor interface {
	// ProcessImage runs the full pipeline on raw upload bytes. The result
	// is always a well-formed envelope; errors surface as Success=false
	// with a Japanese message, never as a raw error.
	ProcessImage(ctx context.Context, data []byte, mode models.ProcessingMode) *models.ProcessResult

	// Capabilities reports which engines were found at startup.
	Capabilities() models.Capabilities

	// Records exposes the in-memory receipt store.
	Records() *RecordStore
}

// TextExtractor pulls plain text from a receipt image.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) string
}

// GenerativeExtractor structures receipt data with a language model.
type GenerativeExtractor interface {
	ExtractFromText(ctx context.Context, text string) (*models.Receipt, error)
	ExtractFromImage(ctx context.Context, pngData []byte) (*models.Receipt, error)
	ModelName() string
}
