package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// profile is one OCR engine configuration. Receipts vary wildly in layout,
// so several page-segmentation assumptions are tried and the longest output
// kept. Longest is a completeness proxy, not an accuracy measure.
type profile struct {
	name string
	psm  gosseract.PageSegMode
}

var defaultProfiles = []profile{
	{name: "single-block", psm: gosseract.PSM_SINGLE_BLOCK},
	{name: "auto", psm: gosseract.PSM_AUTO},
	{name: "single-column", psm: gosseract.PSM_SINGLE_COLUMN},
	{name: "sparse", psm: gosseract.PSM_SPARSE_TEXT},
}

// Extractor runs tesseract over an enhanced image. A fresh gosseract client
// is created per profile run; clients are not safe for reuse across requests.
type Extractor struct {
	logger    logger.Logger
	languages string
	tessdata  string
	profiles  []profile
}

// NewExtractor creates an extractor for the given language pack string
// (e.g. "jpn+eng"). tessdata overrides the traineddata directory when
// non-empty.
func NewExtractor(log logger.Logger, languages, tessdata string) *Extractor {
	if languages == "" {
		languages = "jpn+eng"
	}
	return &Extractor{
		logger:    log,
		languages: languages,
		tessdata:  tessdata,
		profiles:  defaultProfiles,
	}
}

// Available reports whether the tesseract runtime and the Japanese language
// pack are usable in this process.
func Available() bool {
	defer func() { recover() }() // tesseract missing entirely panics in cgo init
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return false
	}
	for _, l := range langs {
		if l == "jpn" {
			return true
		}
	}
	return false
}

// ExtractText runs every profile and returns the longest output. Profile
// failures are logged and skipped; total failure yields an empty string,
// never an error.
func (e *Extractor) ExtractText(ctx context.Context, img image.Image) string {
	data, err := encodePNG(img)
	if err != nil {
		e.logger.Error("failed to encode image for OCR", logger.Error(err))
		return ""
	}

	best := ""
	for _, p := range e.profiles {
		select {
		case <-ctx.Done():
			return best
		default:
		}

		text, err := e.runProfile(data, p)
		if err != nil {
			e.logger.Warn("OCR profile failed",
				logger.String("profile", p.name),
				logger.Error(err),
			)
			continue
		}
		if len(text) > len(best) {
			e.logger.Debug("better OCR result",
				logger.String("profile", p.name),
				logger.Int("length", len(text)),
			)
			best = text
		}
	}
	return best
}

func (e *Extractor) runProfile(data []byte, p profile) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdata != "" {
		if err := client.SetTessdataPrefix(e.tessdata); err != nil {
			return "", err
		}
	}
	if err := client.SetLanguage(e.languages); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(p.psm); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
