// Package classify infers an artifact's content kind from DOM hints and
// text heuristics.
//
// Classification is an ordered cascade: rules are evaluated top to bottom
// and the first match wins. Content frequently satisfies several heuristics
// (TypeScript source also looks like generic code), so rule order is the
// contract. New rules belong at their precedence position, not appended.
package classify

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// input carries everything one classification pass looks at.
type input struct {
	content string // trimmed
	lower   string
	lines   []string
	sel     *goquery.Selection // nil when no element context exists
}

// rule is one predicate in the cascade. A rule either claims the content
// with a kind or passes it down.
type rule struct {
	name  string
	apply func(in input) (models.Kind, bool)
}

// cascade is the precedence chain. Order is load-bearing.
var cascade = []rule{
	{"element-hints", ruleElementHints},
	{"markup-prefix", ruleMarkupPrefix},
	{"json", ruleJSON},
	{"css", ruleCSS},
	{"js-ts", ruleJSTS},
	{"python", rulePython},
	{"markdown", ruleMarkdown},
	{"generic-code", ruleGenericCode},
}

// Classify infers the content kind for sanitized content, optionally using
// the element it was extracted from for attribute and tag hints.
// Deterministic for fixed inputs.
func Classify(content string, sel *goquery.Selection) models.Kind {
	trimmed := strings.TrimSpace(content)
	in := input{
		content: trimmed,
		lower:   strings.ToLower(trimmed),
		lines:   strings.Split(trimmed, "\n"),
		sel:     sel,
	}

	for _, r := range cascade {
		if kind, ok := r.apply(in); ok {
			return kind
		}
	}
	return models.KindText
}

// languageKinds maps declared language names to kinds for element hints.
var languageKinds = map[string]models.Kind{
	"javascript": models.KindJavaScript,
	"js":         models.KindJavaScript,
	"jsx":        models.KindJavaScript,
	"typescript": models.KindTypeScript,
	"ts":         models.KindTypeScript,
	"tsx":        models.KindTypeScript,
	"python":     models.KindPython,
	"py":         models.KindPython,
	"html":       models.KindHTML,
	"css":        models.KindCSS,
	"json":       models.KindJSON,
	"xml":        models.KindXML,
	"svg":        models.KindSVG,
	"markdown":   models.KindMarkdown,
	"md":         models.KindMarkdown,
}

// ruleElementHints checks language-prefixed classes, data attributes, and
// the tag name. Only applies when an element was supplied.
func ruleElementHints(in input) (models.Kind, bool) {
	if in.sel == nil || in.sel.Length() == 0 {
		return "", false
	}

	if lang := DeclaredLanguage(in.sel); lang != "" {
		if kind, ok := languageKinds[lang]; ok {
			return kind, true
		}
		// A declared language we have no kind for is still code.
		return models.KindCode, true
	}

	switch goquery.NodeName(in.sel) {
	case "svg":
		return models.KindSVG, true
	case "style":
		return models.KindCSS, true
	case "script":
		return models.KindJavaScript, true
	}

	return "", false
}

// DeclaredLanguage extracts a language declared on the element via
// language-*/lang-* class names or data-language/data-lang attributes.
func DeclaredLanguage(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	if class, ok := sel.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			lc := strings.ToLower(c)
			if lang, found := strings.CutPrefix(lc, "language-"); found && lang != "" {
				return lang
			}
			if lang, found := strings.CutPrefix(lc, "lang-"); found && lang != "" {
				return lang
			}
		}
	}

	if lang, ok := sel.Attr("data-language"); ok && lang != "" {
		return strings.ToLower(lang)
	}
	if lang, ok := sel.Attr("data-lang"); ok && lang != "" {
		return strings.ToLower(lang)
	}

	return ""
}

var genericTagPattern = regexp.MustCompile(`^<[a-zA-Z][a-zA-Z0-9:_-]*(\s[^>]*)?>`)

// ruleMarkupPrefix handles structural prefixes: html documents, svg
// fragments, xml declarations, and generic tags without html markers.
func ruleMarkupPrefix(in input) (models.Kind, bool) {
	switch {
	case strings.HasPrefix(in.lower, "<!doctype html"), strings.HasPrefix(in.lower, "<html"):
		return models.KindHTML, true
	case strings.HasPrefix(in.lower, "<svg"):
		return models.KindSVG, true
	case strings.HasPrefix(in.content, "<?xml"):
		return models.KindXML, true
	}

	if genericTagPattern.MatchString(in.content) {
		if strings.Contains(in.lower, "<body") || strings.Contains(in.lower, "<head") ||
			strings.Contains(in.lower, "<div") || strings.Contains(in.lower, "<p>") {
			return models.KindHTML, true
		}
		return models.KindXML, true
	}

	return "", false
}

// ruleJSON accepts only content fully bounded by {} or [] that parses as
// valid JSON. Malformed JSON falls through to later heuristics.
func ruleJSON(in input) (models.Kind, bool) {
	s := in.content
	if len(s) < 2 {
		return "", false
	}
	bounded := (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
	if !bounded || !json.Valid([]byte(s)) {
		return "", false
	}
	return models.KindJSON, true
}

var (
	// The block pattern requires a class/id selector prefix so braced
	// structures in TypeScript interfaces or JS object literals never
	// read as CSS.
	cssBlockPattern    = regexp.MustCompile(`[.#][\w-]+[\w.#\s,:>+~-]*\{[^{}]*[a-zA-Z-]+\s*:\s*[^{};]+;?[^{}]*\}`)
	cssSelectorLeading = regexp.MustCompile(`^\.[a-zA-Z][\w-]*\s*\{`)
)

// ruleCSS looks for {property: value} blocks or a leading class selector.
func ruleCSS(in input) (models.Kind, bool) {
	if cssSelectorLeading.MatchString(in.content) {
		return models.KindCSS, true
	}
	if cssBlockPattern.MatchString(in.content) {
		return models.KindCSS, true
	}
	return "", false
}

var (
	// JS keywords are matched in their JS-shaped forms only, so Python
	// `class Foo:` and `import os` fall through to the python rule.
	jsKeywordPattern = regexp.MustCompile(
		`\bfunction\b` +
			`|\b(const|let|var)\s+[$\w]` +
			`|\bclass\s+[$\w]+(\s+extends\s+[$.\w]+)?\s*\{` +
			`|(?m:^\s*import\s+[^;\n]+\s+from\s+['"])` +
			`|(?m:^\s*export\s+(default\b|const\b|let\b|var\b|function\b|class\b|\{))`)
	tsDeclPattern       = regexp.MustCompile(`\b(interface|type)\s+[A-Z_a-z]\w*\s*[={]`)
	tsAnnotationPattern = regexp.MustCompile(`:\s*(string|number|boolean)\b`)
)

// ruleJSTS claims JavaScript-keyword-bearing content, upgrading to
// TypeScript when type-system markers are present. An interface/type
// declaration alone is enough for TypeScript even without the base
// keywords.
func ruleJSTS(in input) (models.Kind, bool) {
	if tsDeclPattern.MatchString(in.content) {
		return models.KindTypeScript, true
	}
	if !jsKeywordPattern.MatchString(in.content) {
		return "", false
	}
	if tsAnnotationPattern.MatchString(in.content) {
		return models.KindTypeScript, true
	}
	return models.KindJavaScript, true
}

var pythonImportPattern = regexp.MustCompile(`(?m)^from\s+\S+\s+import\s`)

// rulePython looks for def/class/import statements or a python shebang.
func rulePython(in input) (models.Kind, bool) {
	if strings.HasPrefix(in.content, "#!") && strings.Contains(in.lines[0], "python") {
		return models.KindPython, true
	}
	if strings.Contains(in.content, "def ") {
		return models.KindPython, true
	}
	for _, line := range in.lines {
		if strings.HasPrefix(line, "class ") || strings.HasPrefix(line, "import ") {
			return models.KindPython, true
		}
	}
	if pythonImportPattern.MatchString(in.content) {
		return models.KindPython, true
	}
	return "", false
}

var (
	mdHeadingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	mdLinkPattern     = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
	mdEmphasisPattern = regexp.MustCompile(`(\*\*[^*]+\*\*|__[^_]+__|\*[^*\s][^*]*\*)`)
)

// ruleMarkdown checks heading markers, fenced blocks, link syntax, and
// emphasis across multiple lines.
func ruleMarkdown(in input) (models.Kind, bool) {
	if mdHeadingPattern.MatchString(in.content) {
		return models.KindMarkdown, true
	}
	if strings.Contains(in.content, "```") {
		return models.KindMarkdown, true
	}
	if mdLinkPattern.MatchString(in.content) {
		return models.KindMarkdown, true
	}
	if len(in.lines) > 1 && mdEmphasisPattern.MatchString(in.content) {
		return models.KindMarkdown, true
	}
	return "", false
}

// ruleGenericCode is the catch-all for code-shaped content: a pre/code
// element context, balanced brace/paren structure, or many terminated
// statement lines.
func ruleGenericCode(in input) (models.Kind, bool) {
	if in.sel != nil && in.sel.Length() > 0 {
		tag := goquery.NodeName(in.sel)
		if tag == "pre" || tag == "code" || in.sel.ParentsFiltered("pre, code").Length() > 0 {
			return models.KindCode, true
		}
	}

	if balancedPairs(in.content, '{', '}') && strings.Contains(in.content, "{") {
		return models.KindCode, true
	}
	if balancedPairs(in.content, '(', ')') && strings.Count(in.content, "(") >= 2 {
		return models.KindCode, true
	}

	terminated := 0
	for _, line := range in.lines {
		t := strings.TrimSpace(line)
		if strings.HasSuffix(t, ";") || strings.HasSuffix(t, "{") || strings.HasSuffix(t, "}") {
			terminated++
		}
	}
	if len(in.lines) >= 3 && terminated*2 >= len(in.lines) {
		return models.KindCode, true
	}

	return "", false
}

// balancedPairs reports whether open/close characters pair up with at least
// one pair present.
func balancedPairs(s string, open, close rune) bool {
	depth := 0
	seen := false
	for _, r := range s {
		switch r {
		case open:
			depth++
			seen = true
		case close:
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return seen && depth == 0
}
