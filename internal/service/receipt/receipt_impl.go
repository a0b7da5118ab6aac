package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ktnshm/receipt-scanner/internal/engine/enhance"
	"github.com/ktnshm/receipt-scanner/internal/engine/normalize"
	"github.com/ktnshm/receipt-scanner/internal/engine/ocr"
	"github.com/ktnshm/receipt-scanner/internal/engine/pattern"
	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// User-facing messages, Japanese locale.
const (
	msgPatternSuccess      = "OCR処理でレシート情報を抽出しました。"
	msgGenerativeSuccess   = "AI処理でレシート情報を抽出しました。"
	msgVisionSuccess       = "AI画像解析でレシート情報を抽出しました。"
	msgGenerativeFailed    = "AI処理でレシート情報を抽出できませんでした。"
	msgGenerativeOffline   = "AI処理が利用できません。"
	msgOCROffline          = "OCRエンジンが利用できません。"
	msgNoText              = "OCRでテキストを抽出できませんでした。"
	msgNoStoreName         = "店名を抽出できませんでした。画像の品質を確認してください。"
	msgHEICFailed          = "HEIC画像の変換に失敗しました。"
	msgInvalidImage        = "無効な画像ファイルです。"
	msgPDFFailed           = "PDFからテキストを抽出できませんでした。"
	msgPDFNoVision         = "PDFはAI画像解析に対応していません。"
	msgDateFallback        = " 日付は現在の日付で補完しました。"
	msgUnknownMode         = "不明な処理モードです。"
)

// Service wires the engines into the reconciliation pipeline.
type Service struct {
	logger     logger.Logger
	normalizer *normalize.Normalizer
	enhancer   *enhance.Enhancer
	ocr        TextExtractor
	generative GenerativeExtractor
	pattern    *pattern.Engine
	records    *RecordStore
	caps       models.Capabilities
	now        func() time.Time
}

// Deps carries the service collaborators. OCR and Generative may be nil;
// the service degrades to whatever engines remain.
type Deps struct {
	Normalizer *normalize.Normalizer
	Enhancer   *enhance.Enhancer
	OCR        TextExtractor
	Generative GenerativeExtractor
	Pattern    *pattern.Engine
	Records    *RecordStore
	Now        func() time.Time
}

// NewService builds the pipeline and snapshots the capability set.
func NewService(log logger.Logger, deps Deps) *Service {
	if deps.Records == nil {
		deps.Records = NewRecordStore()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	caps := models.Capabilities{
		OCR:             deps.OCR != nil,
		Generative:      deps.Generative != nil && deps.OCR != nil,
		Vision:          deps.Generative != nil,
		AdvancedEnhance: deps.Enhancer != nil && deps.Enhancer.Advanced(),
		HEIC:            deps.Normalizer != nil && deps.Normalizer.HEIC(),
	}
	return &Service{
		logger:     log,
		normalizer: deps.Normalizer,
		enhancer:   deps.Enhancer,
		ocr:        deps.OCR,
		generative: deps.Generative,
		pattern:    deps.Pattern,
		records:    deps.Records,
		caps:       caps,
		now:        deps.Now,
	}
}

func (s *Service) Capabilities() models.Capabilities { return s.caps }

func (s *Service) Records() *RecordStore { return s.records }

// ProcessImage runs normalization, enhancement, and the mode-selected
// extraction engines over one upload.
func (s *Service) ProcessImage(ctx context.Context, data []byte, mode models.ProcessingMode) *models.ProcessResult {
	if ocr.IsPDF(data) {
		return s.processPDF(ctx, data, mode)
	}

	img, format, err := s.normalizer.Normalize(data)
	if err != nil {
		s.logger.Warn("image normalization failed", logger.Error(err))
		switch {
		case errors.Is(err, models.ErrContainerDecode):
			return failure(msgHEICFailed)
		default:
			return failure(msgInvalidImage)
		}
	}
	s.logger.Info("image normalized",
		logger.String("format", format),
		logger.String("mode", string(mode)))

	if mode == models.ModeVision {
		result := s.processVision(ctx, img)
		s.finalize(result, "")
		return result
	}

	if s.ocr == nil {
		return failure(msgOCROffline)
	}

	enhanced, enhanceMode := s.enhancer.Enhance(img)
	text := s.ocr.ExtractText(ctx, enhanced)

	result := s.processText(ctx, text, mode)
	s.finalize(result, enhanceMode)
	return result
}

// processPDF skips the raster pipeline and extracts embedded text.
func (s *Service) processPDF(ctx context.Context, data []byte, mode models.ProcessingMode) *models.ProcessResult {
	if mode == models.ModeVision {
		return failure(msgPDFNoVision)
	}
	text, err := ocr.ExtractPDFText(data)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("pdf text extraction failed", logger.Error(err))
		}
		return failure(msgPDFFailed)
	}
	result := s.processText(ctx, text, mode)
	s.finalize(result, "")
	return result
}

// processText dispatches extracted text to the requested engines.
func (s *Service) processText(ctx context.Context, text string, mode models.ProcessingMode) *models.ProcessResult {
	if strings.TrimSpace(text) == "" {
		return failure(msgNoText)
	}

	switch mode {
	case models.ModePattern:
		return s.patternOnly(text)
	case models.ModeGenerative:
		if s.generative == nil {
			return failure(msgGenerativeOffline)
		}
		return s.generativeOnly(ctx, text)
	case models.ModeAuto:
		if s.generative == nil {
			return s.patternOnly(text)
		}
		return s.hybrid(ctx, text)
	default:
		return failure(msgUnknownMode)
	}
}

func (s *Service) patternOnly(text string) *models.ProcessResult {
	res, err := s.pattern.Extract(text)
	if err != nil {
		if res != nil && res.StoreName == "" {
			return failure(msgNoStoreName)
		}
		return failure(msgNoText)
	}
	return &models.ProcessResult{
		Success:          true,
		Message:          msgPatternSuccess + missingSuffix(res.MissingFields),
		Data:             patternReceipt(res),
		ProcessingMethod: models.SourcePattern,
	}
}

func (s *Service) generativeOnly(ctx context.Context, text string) *models.ProcessResult {
	receipt, err := s.generative.ExtractFromText(ctx, text)
	if err != nil {
		s.logger.Warn("generative extraction failed", logger.Error(err))
		return failure(msgGenerativeFailed)
	}
	return &models.ProcessResult{
		Success:          true,
		Message:          msgGenerativeSuccess,
		Data:             receipt,
		ProcessingMethod: models.SourceGenerative,
	}
}

// hybrid runs the generative and pattern engines concurrently and merges
// their results. A generative failure degrades to the pattern result.
func (s *Service) hybrid(ctx context.Context, text string) *models.ProcessResult {
	var (
		genReceipt *models.Receipt
		genErr     error
		patRes     *pattern.Result
		patErr     error
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		genReceipt, genErr = s.generative.ExtractFromText(ctx, text)
		return nil
	})
	g.Go(func() error {
		patRes, patErr = s.pattern.Extract(text)
		return nil
	})
	_ = g.Wait()

	if genErr != nil {
		s.logger.Warn("generative engine failed, using pattern result", logger.Error(genErr))
		if patErr != nil {
			if patRes != nil && patRes.StoreName == "" {
				return failure(msgNoStoreName)
			}
			return failure(msgNoText)
		}
		return &models.ProcessResult{
			Success:          true,
			Message:          msgPatternSuccess + missingSuffix(patRes.MissingFields),
			Data:             patternReceipt(patRes),
			ProcessingMethod: models.SourcePattern,
		}
	}

	data := genReceipt
	if patErr == nil && patRes != nil {
		data = mergeReceipts(genReceipt, patRes)
	}
	return &models.ProcessResult{
		Success:          true,
		Message:          msgGenerativeSuccess,
		Data:             data,
		ProcessingMethod: models.SourceHybrid,
	}
}

// processVision sends the normalized image straight to the model.
func (s *Service) processVision(ctx context.Context, img image.Image) *models.ProcessResult {
	if s.generative == nil {
		return failure(msgGenerativeOffline)
	}
	data, err := encodePNG(img)
	if err != nil {
		return failure(fmt.Sprintf("画像処理中にエラーが発生しました: %v", err))
	}
	receipt, err := s.generative.ExtractFromImage(ctx, data)
	if err != nil {
		s.logger.Warn("vision extraction failed", logger.Error(err))
		return failure(msgGenerativeFailed)
	}
	return &models.ProcessResult{
		Success:          true,
		Message:          msgVisionSuccess,
		Data:             receipt,
		ProcessingMethod: models.SourceVision,
	}
}

// finalize stamps provenance on a successful result and records it. A
// missing date is filled with today and noted in the message.
func (s *Service) finalize(result *models.ProcessResult, enhanceMode string) {
	if result == nil || !result.Success || result.Data == nil {
		return
	}
	d := result.Data
	if d.Date == "" {
		d.Date = s.now().Format("2006-01-02")
		result.Message += msgDateFallback
	}
	d.ID = uuid.NewString()
	d.ProcessedAt = s.now().UTC()
	d.ProcessingInfo = &models.ProcessingInfo{
		Method:              result.ProcessingMethod,
		OCRAvailable:        s.caps.OCR,
		GenerativeAvailable: s.caps.Generative,
		AdvancedEnhance:     s.caps.AdvancedEnhance,
		HEICSupport:         s.caps.HEIC,
		EnhanceMode:         enhanceMode,
	}
	s.records.Add(*d)
}

func failure(message string) *models.ProcessResult {
	return &models.ProcessResult{Success: false, Message: message}
}

func missingSuffix(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return "（" + strings.Join(fields, "、") + "は抽出できませんでした）"
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
