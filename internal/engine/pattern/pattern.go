package pattern

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// Result holds the fields the rule tables pulled out of one text.
type Result struct {
	Date              string
	StoreName         string
	TotalAmount       *float64
	TaxExcludedAmount *float64
	TaxIncludedAmount *float64
	Items             []models.Item
	Confidence        float64

	// MissingFields lists the Japanese labels of optional fields that could
	// not be extracted, for the user-facing message.
	MissingFields []string
}

// Engine extracts receipt fields from raw OCR text with ordered regular
// expression rule tables. Extraction is a pure function of the text (and
// the injected clock, used only for year-less dates), so identical input
// always yields identical fields and confidence.
type Engine struct {
	logger logger.Logger
	now    func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithClock replaces the wall clock, which decides the year of bare
// month/day dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a pattern extraction engine.
func NewEngine(log logger.Logger, opts ...Option) *Engine {
	e := &Engine{logger: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every rule table over the text. A missing store name is the
// only hard failure; missing date or amounts lower the confidence and are
// reported through MissingFields.
func (e *Engine) Extract(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text to extract from", models.ErrExtractionIncomplete)
	}

	normalized := normalizeWidth(text)

	result := &Result{
		Date:      e.extractDate(normalized),
		StoreName: extractStoreName(text),
		Items:     extractItems(normalized),
	}
	result.TotalAmount = extractAmount(normalized)
	result.TaxExcludedAmount, result.TaxIncludedAmount = extractTaxAmounts(normalized)

	if result.Date == "" {
		result.MissingFields = append(result.MissingFields, "日付")
	}
	if result.StoreName == "" {
		result.MissingFields = append(result.MissingFields, "店名")
	}
	if result.TotalAmount == nil {
		result.MissingFields = append(result.MissingFields, "合計金額")
	}

	result.Confidence = scoreConfidence(text, result)

	if result.StoreName == "" {
		return result, fmt.Errorf("%w: store name not found", models.ErrExtractionIncomplete)
	}
	return result, nil
}

// normalizeWidth maps full-width digits, commas, and spaces to their ASCII
// forms so one set of numeric patterns covers both print styles.
func normalizeWidth(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return '0' + (r - '０')
		case r == '，':
			return ','
		case r == '　': // ideographic space
			return ' '
		}
		return r
	}, text)
}

// scoreConfidence is the pattern engine's completeness heuristic. Weights:
// store name 0.3, amount 0.3, date 0.2, text volume 0.2 past 100 chars plus
// 0.1 past 300, plausible digit density 0.1; capped at 1.0.
func scoreConfidence(text string, r *Result) float64 {
	confidence := 0.0

	runes := []rune(text)
	if len(runes) > 100 {
		confidence += 0.2
	}
	if len(runes) > 300 {
		confidence += 0.1
	}

	if r.StoreName != "" {
		confidence += 0.3
	}
	if r.TotalAmount != nil {
		confidence += 0.3
	}
	if r.Date != "" {
		confidence += 0.2
	}

	if ratio := digitRatio(text); ratio > 0.1 && ratio < 0.5 {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func digitRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len(runes))
}
