// Package sanitize normalizes raw extracted text into safe, comparable
// content. Clean is pure and total: it never fails and empty input yields
// empty output.
package sanitize

import "strings"

// Clean normalizes a raw extracted string:
//   - strips control characters except newline and tab
//   - normalizes CRLF and lone CR line endings to LF
//   - collapses runs of 4+ blank lines down to 2
//   - trims leading/trailing whitespace
//
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(input string) string {
	if input == "" {
		return ""
	}

	// Line endings first so the control-char pass only ever sees \n.
	s := strings.ReplaceAll(input, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || !isControl(r) {
			b.WriteRune(r)
		}
	}
	s = b.String()

	s = collapseBlankLines(s)

	return strings.TrimSpace(s)
}

// isControl reports whether r is a C0/C1 control character.
func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r < 0xa0)
}

// collapseBlankLines rewrites any run of 4 or more consecutive newlines
// (3+ blank lines) down to 3 newlines, leaving at most 2 blank lines.
func collapseBlankLines(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	run := 0
	for _, r := range s {
		if r == '\n' {
			run++
			if run <= 3 {
				b.WriteRune(r)
			}
			continue
		}
		run = 0
		b.WriteRune(r)
	}
	return b.String()
}
