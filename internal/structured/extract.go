package structured

import (
	"regexp"
	"strings"
)

// fencedBlockRe matches the first markdown code fence, with or without a
// language tag. Agents commonly wrap JSON payloads this way.
var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\s*\n(.*?)```")

// trailingCommaRe matches a comma immediately preceding a closing brace
// or bracket, a common agent output defect that strict JSON rejects.
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// extractFencedBlock returns the interior of the first markdown code
// fence in text, or "" when no fence is present.
func extractFencedBlock(text string) string {
	matches := fencedBlockRe.FindStringSubmatch(text)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}

// stripTrailingCommas removes commas that directly precede a closing
// brace or bracket.
func stripTrailingCommas(text string) string {
	return trailingCommaRe.ReplaceAllString(text, "$1")
}

// extractBalancedSpan returns the first balanced {...} or [...] span in
// text, or "" when none exists. Nesting is tracked with awareness of
// string literals and escapes so braces inside strings do not count.
func extractBalancedSpan(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Brackets inside strings are literal text.
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// candidates assembles the ordered list of parse candidates for raw
// text: fenced-block interior (when markdown stripping is enabled), the
// raw text, the trimmed text, a trailing-comma-stripped variant, and
// the first balanced bracket span. Duplicates of earlier candidates are
// dropped so each parse attempt tries genuinely new text.
func candidates(raw string, stripMarkdown bool) []string {
	ordered := make([]string, 0, 5)
	if stripMarkdown {
		if block := extractFencedBlock(raw); block != "" {
			ordered = append(ordered, block)
		}
	}
	trimmed := strings.TrimSpace(raw)
	ordered = append(ordered, raw, trimmed, stripTrailingCommas(trimmed))
	if span := extractBalancedSpan(raw); span != "" {
		ordered = append(ordered, span)
	}

	seen := make(map[string]bool, len(ordered))
	unique := ordered[:0]
	for _, c := range ordered {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}
	return unique
}
