package problemgen

import (
	"regexp"
	"strings"
)

var (
	pythonFenceOpen = regexp.MustCompile("```python")
	fenceMarker     = regexp.MustCompile("```")

	rawSingle   = regexp.MustCompile(`r'([^']*)'`)
	rawDouble   = regexp.MustCompile(`r"([^"]*)"`)
	plainSingle = regexp.MustCompile(`'([^']*)'`)
	plainDouble = regexp.MustCompile(`"([^"]*)"`)

	lineBreak = regexp.MustCompile(`\r?\n`)
)

// SanitizeCode cleans model-written plotting code: markdown fences are
// removed and line breaks inside raw string literals, or inside ordinary
// literals holding "$" or a backslash (LaTeX labels), become spaces.
// This is a regex heuristic, not a Python lexer.
func SanitizeCode(code string) string {
	if code == "" {
		return ""
	}

	s := pythonFenceOpen.ReplaceAllString(code, "")
	s = fenceMarker.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	s = rawSingle.ReplaceAllStringFunc(s, collapseBreaks)
	s = rawDouble.ReplaceAllStringFunc(s, collapseBreaks)
	s = plainSingle.ReplaceAllStringFunc(s, collapseIfMath)
	s = plainDouble.ReplaceAllStringFunc(s, collapseIfMath)
	return s
}

func collapseBreaks(lit string) string {
	return lineBreak.ReplaceAllString(lit, " ")
}

func collapseIfMath(lit string) string {
	if strings.ContainsAny(lit, `$\`) {
		return collapseBreaks(lit)
	}
	return lit
}
