package models

import (
	"errors"
	"time"
)

// ProcessingMode selects which extraction engines run for a request.
type ProcessingMode string

const (
	// ModePattern runs the regex rule tables over OCR text only.
	ModePattern ProcessingMode = "pattern"
	// ModeGenerative sends OCR text to the language model only.
	ModeGenerative ProcessingMode = "generative"
	// ModeVision sends the image directly to the language model, bypassing OCR.
	ModeVision ProcessingMode = "vision"
	// ModeAuto runs the generative engine with pattern cross-validation,
	// falling back to pattern-only when the generative engine fails.
	ModeAuto ProcessingMode = "auto"
)

// ParseMode maps a request mode string to a ProcessingMode. The legacy
// aliases "ocr" and "ai" are accepted for compatibility with older clients.
func ParseMode(s string) (ProcessingMode, bool) {
	switch s {
	case "", "auto":
		return ModeAuto, true
	case "pattern", "ocr":
		return ModePattern, true
	case "generative", "ai":
		return ModeGenerative, true
	case "vision":
		return ModeVision, true
	default:
		return "", false
	}
}

// ResultSource identifies which engine produced a receipt.
type ResultSource string

const (
	SourcePattern    ResultSource = "pattern"
	SourceGenerative ResultSource = "generative"
	SourceHybrid     ResultSource = "generative-pattern-hybrid"
	SourceVision     ResultSource = "vision"
)

// Item is a single line item on a receipt.
type Item struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Quantity int      `json:"quantity"`
}

// Receipt is the canonical extraction result threaded through the pipeline.
// StoreName is the only required field: its absence makes the whole result
// a failure. Every other field may be independently absent (nil).
type Receipt struct {
	ID                string       `json:"id,omitempty"`
	Date              string       `json:"date,omitempty"` // ISO YYYY-MM-DD
	StoreName         string       `json:"store_name"`
	TotalAmount       *float64     `json:"total_amount"`
	TaxExcludedAmount *float64     `json:"tax_excluded_amount"`
	TaxIncludedAmount *float64     `json:"tax_included_amount"`
	Items             []Item       `json:"items,omitempty"`
	PaymentMethod     string       `json:"payment_method,omitempty"`
	ReceiptNumber     string       `json:"receipt_number,omitempty"`
	ExpenseCategory   string       `json:"expense_category,omitempty"`
	Confidence        float64      `json:"confidence"`
	Source            ResultSource `json:"source"`

	// Cross-validation provenance. OCRAmount carries the pattern engine's
	// total when it disagrees with the generative total by more than the
	// tolerance; both values are preserved for manual review.
	AmountVerificationWarning bool     `json:"amount_verification_warning,omitempty"`
	OCRAmount                 *float64 `json:"ocr_amount,omitempty"`

	ProcessedAt    time.Time       `json:"processed_at,omitempty"`
	ProcessingInfo *ProcessingInfo `json:"processing_info,omitempty"`
}

// ProcessingInfo records which engines were available and used for a result.
type ProcessingInfo struct {
	Method             ResultSource `json:"method"`
	OCRAvailable       bool         `json:"ocr_available"`
	GenerativeAvailable bool        `json:"generative_available"`
	AdvancedEnhance    bool         `json:"advanced_image_processing"`
	HEICSupport        bool         `json:"heic_support"`
	EnhanceMode        string       `json:"enhance_mode,omitempty"`
}

// ProcessResult is the envelope returned to the HTTP layer. Message is a
// human-readable, Japanese-locale description of what happened, including
// which optional fields could not be extracted.
type ProcessResult struct {
	Success          bool         `json:"success"`
	Message          string       `json:"message"`
	Data             *Receipt     `json:"data"`
	ProcessingMethod ResultSource `json:"processing_method,omitempty"`
}

// Capabilities describes which optional collaborators were found at startup.
// It is established once and treated as read-only afterwards.
type Capabilities struct {
	OCR             bool `json:"ocr"`
	Generative      bool `json:"generative"`
	Vision          bool `json:"vision"`
	AdvancedEnhance bool `json:"advanced_image_processing"`
	HEIC            bool `json:"heic_support"`
}

// AvailableModes lists the mode strings a caller may request.
func (c Capabilities) AvailableModes() []string {
	modes := make([]string, 0, 4)
	if c.OCR {
		modes = append(modes, string(ModePattern))
	}
	if c.Generative && c.OCR {
		modes = append(modes, string(ModeGenerative), string(ModeAuto))
	}
	if c.Vision {
		modes = append(modes, string(ModeVision))
	}
	return modes
}

// RecommendedMode picks the richest mode the current capabilities support.
func (c Capabilities) RecommendedMode() string {
	switch {
	case c.Generative && c.OCR:
		return string(ModeAuto)
	case c.Vision:
		return string(ModeVision)
	case c.OCR:
		return string(ModePattern)
	default:
		return ""
	}
}

// Error taxonomy. Stage failures are wrapped with these sentinels so the
// reconciler can decide between fallback and terminal failure; none of them
// crosses the HTTP boundary as a raw error.
var (
	ErrInvalidImage         = errors.New("invalid image")
	ErrContainerDecode      = errors.New("legacy container decode failed")
	ErrUpstreamUnavailable  = errors.New("upstream engine unavailable")
	ErrSchemaViolation      = errors.New("generative output violates schema")
	ErrExtractionIncomplete = errors.New("required field missing from extraction")
)
