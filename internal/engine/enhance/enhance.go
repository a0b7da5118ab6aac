package enhance

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// Mode names reported in result provenance.
const (
	ModeAdvanced = "advanced"
	ModeBasic    = "basic"
)

// Enhancer runs the image cleanup chain that precedes OCR. The advanced
// chain degrades to the basic one stage-failure by stage-failure; Enhance
// never fails, it always returns some usable image.
type Enhancer struct {
	logger   logger.Logger
	advanced bool
	chain    []Preprocessor
}

// Config tunes the advanced chain.
type Config struct {
	Advanced        bool
	DenoiseStrength float64
	DeskewLimit     float64
}

// NewEnhancer builds the enhancement chain. With Advanced disabled only the
// basic chain is used.
func NewEnhancer(log logger.Logger, cfg Config) *Enhancer {
	if cfg.DenoiseStrength <= 0 {
		cfg.DenoiseStrength = 0.8
	}
	if cfg.DeskewLimit <= 0 {
		cfg.DeskewLimit = 15
	}

	chain := []Preprocessor{
		NewGrayscaleProcessor(),
		NewDenoiseProcessor(cfg.DenoiseStrength),
		NewEqualizeProcessor(),
		NewOtsuBinarizeProcessor(),
		NewMorphCloseProcessor(),
		NewDeskewProcessor(cfg.DeskewLimit),
	}

	return &Enhancer{
		logger:   log,
		advanced: cfg.Advanced,
		chain:    chain,
	}
}

// Advanced reports whether the advanced chain is enabled.
func (e *Enhancer) Advanced() bool { return e.advanced }

// Enhance applies the cleanup chain and reports which mode produced the
// result ("advanced" or "basic").
func (e *Enhancer) Enhance(img image.Image) (image.Image, string) {
	if e.advanced {
		result, err := e.applyChain(img)
		if err == nil {
			return result, ModeAdvanced
		}
		e.logger.Warn("advanced enhancement failed, falling back to basic",
			logger.Error(err),
		)
	}
	return e.basic(img), ModeBasic
}

func (e *Enhancer) applyChain(img image.Image) (image.Image, error) {
	result := img
	var err error
	for _, p := range e.chain {
		result, err = p.Process(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// basic is the cheap chain used when the advanced one is unavailable or
// failed: grayscale, fixed contrast and sharpness boosts, and a downscale
// to keep the OCR engine within its sweet spot.
func (e *Enhancer) basic(img image.Image) image.Image {
	result := imaging.Grayscale(img)
	result = imaging.AdjustContrast(result, 40)
	result = imaging.Sharpen(result, 2.0)

	bounds := result.Bounds()
	if bounds.Dx() > 2000 || bounds.Dy() > 2000 {
		result = imaging.Fit(result, 2000, 2000, imaging.Lanczos)
	}
	return result
}
