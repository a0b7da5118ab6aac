package pattern

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	minAmount = 1
	maxAmount = 10000000
)

type amountRule struct {
	re *regexp.Regexp
	// label marks rules anchored on a total label (合計 or TOTAL). A
	// label-anchored candidate beats any unlabelled one regardless of size.
	label bool
}

// amountRules is ordered; all rules run and every in-range match becomes a
// candidate. Expects width-normalized text.
var amountRules = []amountRule{
	{re: regexp.MustCompile(`合\s*計\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`), label: true},
	{re: regexp.MustCompile(`お買上げ合計\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`), label: true},
	{re: regexp.MustCompile(`(?i)TOTAL\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`), label: true},
	{re: regexp.MustCompile(`計\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)},
	{re: regexp.MustCompile(`(?:小計|総額|金額|お支払い金額)\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)},
	{re: regexp.MustCompile(`お預か?り?\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)},
	{re: regexp.MustCompile(`お釣り?\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)},
	{re: regexp.MustCompile(`現[計金]\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)},
	{re: regexp.MustCompile(`[¥￥]\s*(\d{1,3}(?:,\d{3})*)`)},
	{re: regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)\s*円`)},
	{re: regexp.MustCompile(`(?m)(\d{3,}(?:,\d{3})*)\s*$`)},
	{re: regexp.MustCompile(`(?m)^\s*(\d{3,}(?:,\d{3})*)`)},
}

type amountCandidate struct {
	value float64
	label bool
}

// extractAmount returns the receipt total: the first label-anchored
// candidate if any rule found one, otherwise the largest in-range amount.
func extractAmount(text string) *float64 {
	var candidates []amountCandidate
	for _, rule := range amountRules {
		for _, m := range rule.re.FindAllStringSubmatch(text, -1) {
			v, ok := parseAmount(m[1])
			if !ok {
				continue
			}
			candidates = append(candidates, amountCandidate{value: v, label: rule.label})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, c := range candidates {
		if c.label {
			v := c.value
			return &v
		}
	}

	max := candidates[0].value
	for _, c := range candidates[1:] {
		if c.value > max {
			max = c.value
		}
	}
	return &max
}

var (
	taxExcludedRe = regexp.MustCompile(`(?:税抜|税別)\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)
	taxIncludedRe = regexp.MustCompile(`税込\s*[:：]?\s*[¥￥]?\s*(\d{1,3}(?:,\d{3})*)`)
)

// extractTaxAmounts pulls the tax-excluded and tax-included figures when
// the receipt labels them.
func extractTaxAmounts(text string) (excluded, included *float64) {
	if m := taxExcludedRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			excluded = &v
		}
	}
	if m := taxIncludedRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			included = &v
		}
	}
	return excluded, included
}

// parseAmount converts a comma-grouped digit string to a value, rejecting
// anything outside [1, 10000000] yen.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if v < minAmount || v > maxAmount {
		return 0, false
	}
	return v, true
}
