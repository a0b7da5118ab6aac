package pattern

import (
	"regexp"
	"strings"

	"github.com/ktnshm/receipt-scanner/internal/models"
)

const maxItemPrice = 100000

// itemRules match "name   price" line shapes where the price carries a
// currency marker. Expects width-normalized text.
var itemRules = []*regexp.Regexp{
	regexp.MustCompile(`([^\d\n]{2,})\s+[¥￥]\s*(\d{1,3}(?:,\d{3})*)`),
	regexp.MustCompile(`([^\d\n]{2,})\s+(\d{1,3}(?:,\d{3})*)\s*円`),
}

// extractItems collects line items: a non-numeric name span followed by a
// ¥-marked price in [1, 100000] yen. Every match is kept, repeated lines
// included. Best effort; an empty slice is normal.
func extractItems(text string) []models.Item {
	var items []models.Item
	for _, line := range strings.Split(text, "\n") {
		for _, rule := range itemRules {
			m := rule.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := strings.TrimSpace(m[1])
			if len([]rune(name)) < 2 {
				continue
			}
			price, ok := parseAmount(m[2])
			if !ok || price > maxItemPrice {
				continue
			}
			p := price
			items = append(items, models.Item{Name: name, Price: &p, Quantity: 1})
			break
		}
	}
	return items
}
