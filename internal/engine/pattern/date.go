package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

type dateKind int

const (
	dateFullYear dateKind = iota // four-digit year, month, day
	dateShortYear                // two-digit year, month, day
	dateEra                      // era year, month, day; yearOffset maps to Gregorian
	dateMonthDay                 // month and day only, year from the clock
)

type dateRule struct {
	re         *regexp.Regexp
	kind       dateKind
	yearOffset int
}

// dateRules is ordered from most to least specific; the first rule that
// matches and yields a valid calendar date wins.
var dateRules = []dateRule{
	{re: regexp.MustCompile(`(\d{4})[/\-年]\s*(\d{1,2})[/\-月]\s*(\d{1,2})`), kind: dateFullYear},
	{re: regexp.MustCompile(`(\d{2})[/\-年]\s*(\d{1,2})[/\-月]\s*(\d{1,2})`), kind: dateShortYear},
	{re: regexp.MustCompile(`令和\s*(\d{1,2})年\s*(\d{1,2})月\s*(\d{1,2})日`), kind: dateEra, yearOffset: 2018},
	{re: regexp.MustCompile(`平成\s*(\d{1,2})年\s*(\d{1,2})月\s*(\d{1,2})日`), kind: dateEra, yearOffset: 1988},
	{re: regexp.MustCompile(`(\d{1,2})[/\-月]\s*(\d{1,2})日?`), kind: dateMonthDay},
	{re: regexp.MustCompile(`(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})`), kind: dateFullYear},
	{re: regexp.MustCompile(`(\d{2})\.\s*(\d{1,2})\.\s*(\d{1,2})`), kind: dateShortYear},
	{re: regexp.MustCompile(`(\d{4})\s+(\d{1,2})\s+(\d{1,2})`), kind: dateFullYear},
	{re: regexp.MustCompile(`(\d{4})[^\d]*(\d{1,2})[^\d]*(\d{1,2})`), kind: dateFullYear},
	{re: regexp.MustCompile(`(\d{2})[^\d]+(\d{1,2})[^\d]+(\d{1,2})`), kind: dateShortYear},
}

// extractDate walks the date rule table and returns the first valid match
// as YYYY-MM-DD, or "" when nothing matches.
func (e *Engine) extractDate(text string) string {
	for _, rule := range dateRules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		var year, month, day int
		switch rule.kind {
		case dateFullYear:
			year, _ = strconv.Atoi(m[1])
			month, _ = strconv.Atoi(m[2])
			day, _ = strconv.Atoi(m[3])
		case dateShortYear:
			yy, _ := strconv.Atoi(m[1])
			if yy < 50 {
				year = 2000 + yy
			} else {
				year = 1900 + yy
			}
			month, _ = strconv.Atoi(m[2])
			day, _ = strconv.Atoi(m[3])
		case dateEra:
			eraYear, _ := strconv.Atoi(m[1])
			year = rule.yearOffset + eraYear
			month, _ = strconv.Atoi(m[2])
			day, _ = strconv.Atoi(m[3])
		case dateMonthDay:
			year = e.now().Year()
			month, _ = strconv.Atoi(m[1])
			day, _ = strconv.Atoi(m[2])
		}

		if !validDate(year, month, day) {
			continue
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}
	return ""
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && int(d.Month()) == month && d.Day() == day
}
