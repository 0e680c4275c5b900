package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const excerptEllipsis = "…"

var (
	inlineCodePattern = regexp.MustCompile("`+([^`]*)`+")
	headingPattern    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	listMarkerPattern = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+`)
	tableRulePattern  = regexp.MustCompile(`(?m)^[ \t]*\|?(?:[ \t]*:?-{3,}:?[ \t]*\|?)+[ \t]*$`)
	tablePipePattern  = regexp.MustCompile(`\|`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Excerpt derives a plain-text preview from markdown source. Code fences,
// inline code markers, headings, list markers and table pipes are dropped,
// whitespace is collapsed, and the result is cut to limit runes with a
// trailing ellipsis. A limit of zero or less disables truncation.
func Excerpt(body string, limit int) string {
	plain := stripFencedCode(body)
	plain = inlineCodePattern.ReplaceAllString(plain, "$1")
	plain = headingPattern.ReplaceAllString(plain, "")
	plain = listMarkerPattern.ReplaceAllString(plain, "")
	plain = tableRulePattern.ReplaceAllString(plain, "")
	plain = tablePipePattern.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(whitespacePattern.ReplaceAllString(plain, " "))

	if limit <= 0 || utf8.RuneCountInString(plain) <= limit {
		return plain
	}

	runes := []rune(plain)
	return strings.TrimRight(string(runes[:limit]), " \t\n") + excerptEllipsis
}

// stripFencedCode drops fenced code blocks line by line. A fence closes only on
// a line made of the same fence character, at least as long as the opener; an
// unclosed fence runs to the end of the body.
func stripFencedCode(body string) string {
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))

	var fenceChar byte
	fenceLen := 0
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if fenceLen == 0 {
			char, n := fenceRun(trimmed)
			if n >= 3 && (char != '`' || !strings.ContainsRune(trimmed[n:], '`')) {
				fenceChar, fenceLen = char, n
				kept = append(kept, "")
				continue
			}
			kept = append(kept, line)
			continue
		}

		char, n := fenceRun(trimmed)
		if char == fenceChar && n >= fenceLen && strings.TrimSpace(trimmed[n:]) == "" {
			fenceLen = 0
		}
		kept = append(kept, "")
	}
	return strings.Join(kept, "\n")
}

// fenceRun returns the fence character starting line and how often it repeats.
func fenceRun(line string) (byte, int) {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	return line[0], n
}
