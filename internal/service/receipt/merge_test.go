package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktnshm/receipt-scanner/internal/engine/pattern"
	"github.com/ktnshm/receipt-scanner/internal/models"
)

func fp(v float64) *float64 { return &v }

func TestMergeReceipts(t *testing.T) {
	t.Run("close amounts carry no warning", func(t *testing.T) {
		gen := &models.Receipt{StoreName: "店", TotalAmount: fp(1000), Confidence: 0.8}
		pat := &pattern.Result{TotalAmount: fp(1050), Confidence: 0.6}

		merged := mergeReceipts(gen, pat)
		assert.False(t, merged.AmountVerificationWarning)
		assert.Nil(t, merged.OCRAmount)
		assert.Equal(t, 1000.0, *merged.TotalAmount)
		assert.InDelta(t, 0.7, merged.Confidence, 0.001)
		assert.Equal(t, models.SourceHybrid, merged.Source)
	})

	t.Run("disagreement preserves both amounts", func(t *testing.T) {
		gen := &models.Receipt{StoreName: "店", TotalAmount: fp(1300), Confidence: 0.8}
		pat := &pattern.Result{TotalAmount: fp(1000), Confidence: 0.6}

		merged := mergeReceipts(gen, pat)
		assert.True(t, merged.AmountVerificationWarning)
		require.NotNil(t, merged.OCRAmount)
		assert.Equal(t, 1000.0, *merged.OCRAmount)
		assert.Equal(t, 1300.0, *merged.TotalAmount)
	})

	t.Run("pattern fills missing fields", func(t *testing.T) {
		gen := &models.Receipt{StoreName: "店", Confidence: 0.6}
		pat := &pattern.Result{
			Date:              "2023-05-15",
			TotalAmount:       fp(1500),
			TaxIncludedAmount: fp(1500),
			Items:             []models.Item{{Name: "牛乳", Price: fp(198), Quantity: 1}},
			Confidence:        0.8,
		}

		merged := mergeReceipts(gen, pat)
		assert.Equal(t, "2023-05-15", merged.Date)
		assert.Equal(t, 1500.0, *merged.TotalAmount)
		assert.Equal(t, 1500.0, *merged.TaxIncludedAmount)
		require.Len(t, merged.Items, 1)
		assert.False(t, merged.AmountVerificationWarning)
	})

	t.Run("generative fields win when present", func(t *testing.T) {
		gen := &models.Receipt{StoreName: "店", Date: "2023-06-01", Confidence: 0.8}
		pat := &pattern.Result{Date: "2023-05-15", Confidence: 0.4}

		merged := mergeReceipts(gen, pat)
		assert.Equal(t, "2023-06-01", merged.Date)
		assert.InDelta(t, 0.6, merged.Confidence, 0.001)
	})
}

func TestPatternReceipt(t *testing.T) {
	res := &pattern.Result{
		Date:        "2023-05-15",
		StoreName:   "スーパー",
		TotalAmount: fp(1500),
		Confidence:  0.9,
	}
	r := patternReceipt(res)
	assert.Equal(t, models.SourcePattern, r.Source)
	assert.Equal(t, "スーパー", r.StoreName)
	assert.Equal(t, 0.9, r.Confidence)
}
