package pattern

import (
	"regexp"
	"strings"
)

// artifactRe removes OCR artifacts from candidate store lines, keeping
// letters, digits, whitespace, and Japanese script ranges.
var artifactRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}]`)

const storeScanLines = 10

// extractStoreName scans the top of the receipt for the first line that
// reads like a name: mostly non-numeric and of plausible length. When no
// line qualifies, the first non-empty line is used as-is, truncated.
func extractStoreName(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	scan := lines
	if len(scan) > storeScanLines {
		scan = scan[:storeScanLines]
	}
	for _, line := range scan {
		runes := []rune(line)
		if len(runes) < 2 || len(runes) >= 50 {
			continue
		}
		if digitRatio(line) >= 0.3 {
			continue
		}
		cleaned := strings.TrimSpace(artifactRe.ReplaceAllString(line, ""))
		if len([]rune(cleaned)) < 2 {
			continue
		}
		return cleaned
	}

	fallback := []rune(lines[0])
	if len(fallback) > 50 {
		fallback = fallback[:50]
	}
	return string(fallback)
}
