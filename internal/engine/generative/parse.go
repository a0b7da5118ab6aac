package generative

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ktnshm/receipt-scanner/internal/models"
)

type rawItem struct {
	Name     string      `json:"name"`
	Price    *flexNumber `json:"price"`
	Quantity *flexNumber `json:"quantity"`
}

type rawReceipt struct {
	StoreName         string      `json:"store_name"`
	Date              string      `json:"date"`
	TotalAmount       *flexNumber `json:"total_amount"`
	TaxExcludedAmount *flexNumber `json:"tax_excluded_amount"`
	TaxIncludedAmount *flexNumber `json:"tax_included_amount"`
	Items             []rawItem   `json:"items"`
	PaymentMethod     string      `json:"payment_method"`
	ReceiptNumber     string      `json:"receipt_number"`
}

// flexNumber accepts a JSON number or a numeric string ("1,500", "¥1500",
// "1500円"). A value that cannot be coerced is treated as absent rather
// than failing the whole document.
type flexNumber struct {
	value float64
	valid bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.value, f.valid = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, cut := range []string{",", "¥", "￥", "円"} {
		s = strings.ReplaceAll(s, cut, "")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value, f.valid = n, true
	return nil
}

func (f *flexNumber) ptr() *float64 {
	if f == nil || !f.valid {
		return nil
	}
	v := f.value
	return &v
}

// parseResponse turns a raw model response into a receipt. It tolerates
// markdown fences and prose around the JSON, validates the document
// against the schema, then coerces the fields.
func parseResponse(raw string) (*models.Receipt, error) {
	doc := extractJSON(raw)
	if doc == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", models.ErrSchemaViolation)
	}

	var generic any
	if err := json.Unmarshal([]byte(doc), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaViolation, err)
	}
	if err := receiptSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaViolation, err)
	}

	var parsed rawReceipt
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(parsed.StoreName) == "" {
		return nil, fmt.Errorf("%w: empty store name", models.ErrSchemaViolation)
	}

	receipt := &models.Receipt{
		StoreName:         strings.TrimSpace(parsed.StoreName),
		Date:              normalizeDate(parsed.Date),
		TotalAmount:       parsed.TotalAmount.ptr(),
		TaxExcludedAmount: parsed.TaxExcludedAmount.ptr(),
		TaxIncludedAmount: parsed.TaxIncludedAmount.ptr(),
		PaymentMethod:     strings.TrimSpace(parsed.PaymentMethod),
		ReceiptNumber:     strings.TrimSpace(parsed.ReceiptNumber),
		Source:            models.SourceGenerative,
	}
	for _, it := range parsed.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		quantity := 1
		if q := it.Quantity.ptr(); q != nil && *q >= 1 {
			quantity = int(*q)
		}
		receipt.Items = append(receipt.Items, models.Item{
			Name:     name,
			Price:    it.Price.ptr(),
			Quantity: quantity,
		})
	}

	receipt.ExpenseCategory = categorize(receipt)
	receipt.Confidence = scoreReceipt(receipt)
	return receipt, nil
}

// extractJSON strips markdown code fences, then falls back to the first
// balanced {...} span when the response wraps the JSON in prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return s
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006年1月2日", "2006.01.02"}

// normalizeDate coerces the model's date to YYYY-MM-DD, or "" when the
// value does not parse.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// scoreReceipt is the generative completeness heuristic: store name 0.3,
// total amount 0.3, date 0.2, items 0.1, payment method 0.05, receipt
// number 0.05; capped at 1.0.
func scoreReceipt(r *models.Receipt) float64 {
	confidence := 0.0
	if r.StoreName != "" {
		confidence += 0.3
	}
	if r.TotalAmount != nil {
		confidence += 0.3
	}
	if r.Date != "" {
		confidence += 0.2
	}
	if len(r.Items) > 0 {
		confidence += 0.1
	}
	if r.PaymentMethod != "" {
		confidence += 0.05
	}
	if r.ReceiptNumber != "" {
		confidence += 0.05
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
