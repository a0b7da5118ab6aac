package receipt

import (
	"math"

	"github.com/ktnshm/receipt-scanner/internal/engine/pattern"
	"github.com/ktnshm/receipt-scanner/internal/models"
)

// amountTolerance is the relative disagreement between the generative and
// pattern totals above which both values are preserved for review.
const amountTolerance = 0.1

// patternReceipt converts a pattern extraction into the canonical receipt.
func patternReceipt(res *pattern.Result) *models.Receipt {
	return &models.Receipt{
		Date:              res.Date,
		StoreName:         res.StoreName,
		TotalAmount:       res.TotalAmount,
		TaxExcludedAmount: res.TaxExcludedAmount,
		TaxIncludedAmount: res.TaxIncludedAmount,
		Items:             res.Items,
		Confidence:        res.Confidence,
		Source:            models.SourcePattern,
	}
}

// mergeReceipts reconciles the generative result with the pattern result.
// The generative result is primary; the pattern result fills gaps and
// cross-validates the total. Disagreement over the tolerance keeps the
// generative amount and flags the receipt instead of guessing a winner.
func mergeReceipts(gen *models.Receipt, pat *pattern.Result) *models.Receipt {
	merged := *gen

	if merged.Date == "" && pat.Date != "" {
		merged.Date = pat.Date
	}
	if merged.TotalAmount == nil && pat.TotalAmount != nil {
		merged.TotalAmount = pat.TotalAmount
	}
	if merged.TaxExcludedAmount == nil && pat.TaxExcludedAmount != nil {
		merged.TaxExcludedAmount = pat.TaxExcludedAmount
	}
	if merged.TaxIncludedAmount == nil && pat.TaxIncludedAmount != nil {
		merged.TaxIncludedAmount = pat.TaxIncludedAmount
	}
	if len(merged.Items) == 0 && len(pat.Items) > 0 {
		merged.Items = pat.Items
	}

	if gen.TotalAmount != nil && pat.TotalAmount != nil {
		larger := math.Max(*gen.TotalAmount, *pat.TotalAmount)
		if larger > 0 {
			diff := math.Abs(*gen.TotalAmount - *pat.TotalAmount) / larger
			if diff > amountTolerance {
				merged.AmountVerificationWarning = true
				ocrAmount := *pat.TotalAmount
				merged.OCRAmount = &ocrAmount
			}
		}
	}

	merged.Confidence = (gen.Confidence + pat.Confidence) / 2
	merged.Source = models.SourceHybrid
	return &merged
}
