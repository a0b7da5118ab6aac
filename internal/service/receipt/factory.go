package receipt

import (
	"context"

	"github.com/ktnshm/receipt-scanner/config"
	"github.com/ktnshm/receipt-scanner/internal/engine/enhance"
	"github.com/ktnshm/receipt-scanner/internal/engine/generative"
	"github.com/ktnshm/receipt-scanner/internal/engine/normalize"
	"github.com/ktnshm/receipt-scanner/internal/engine/ocr"
	"github.com/ktnshm/receipt-scanner/internal/engine/pattern"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// GetService assembles the pipeline from the environment configuration,
// probing which engines are actually usable on this host. Missing engines
// are logged and skipped; the service degrades instead of failing.
func GetService(ctx context.Context, log logger.Logger) (*Service, error) {
	appCfg := config.GetAppConfig()

	normalizer := normalize.NewNormalizer(log, normalize.Options{
		MaxBytes:    appCfg.MaxImageBytes,
		MaxWidth:    appCfg.MaxImageWidth,
		MaxHeight:   appCfg.MaxImageHeight,
		HEICSupport: true,
	})
	enhancer := enhance.NewEnhancer(log, enhance.Config{Advanced: true})

	var textExtractor TextExtractor
	if ocr.Available() {
		textExtractor = ocr.NewExtractor(log, appCfg.OCRLanguages, appCfg.TessdataDir)
	} else {
		log.Warn("tesseract with Japanese data not found, OCR modes disabled")
	}

	var gen GenerativeExtractor
	client, err := generative.NewClient(ctx, generative.Config{
		APIKey:     appCfg.GeminiAPIKey,
		Model:      appCfg.GeminiModel,
		Timeout:    appCfg.GenerativeTimeout,
		MaxRetries: appCfg.GenerativeRetries,
	}, log)
	if err != nil {
		log.Warn("generative engine disabled", logger.Error(err))
	} else {
		gen = client
	}

	return NewService(log, Deps{
		Normalizer: normalizer,
		Enhancer:   enhancer,
		OCR:        textExtractor,
		Generative: gen,
		Pattern:    pattern.NewEngine(log),
		Records:    NewRecordStore(),
	}), nil
}
