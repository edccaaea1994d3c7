package classify

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// selection builds a goquery selection for the first element matching sel
// within the given HTML fragment.
func selection(t *testing.T, html, sel string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture HTML: %v", err)
	}
	s := doc.Find(sel).First()
	if s.Length() == 0 {
		t.Fatalf("fixture selector %q matched nothing", sel)
	}
	return s
}

func TestClassifyContentHeuristics(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.Kind
	}{
		{"html doctype", "<!DOCTYPE html>\n<html><body>hi</body></html>", models.KindHTML},
		{"html tag", "<html lang=\"en\"><head></head></html>", models.KindHTML},
		{"svg fragment", `<svg viewBox="0 0 10 10"><rect/></svg>`, models.KindSVG},
		{"xml declaration", `<?xml version="1.0"?><root/>`, models.KindXML},
		{"generic tag is xml", "<config><item>1</item></config>", models.KindXML},
		{"valid json object", `{"a":1}`, models.KindJSON},
		{"valid json array", `[1, 2, 3]`, models.KindJSON},
		{"css class selector", ".button {\n  color: red;\n}", models.KindCSS},
		{"css block", "#main .nav { display: flex; }", models.KindCSS},
		{"javascript", "function add(a, b) {\n  return a + b;\n}", models.KindJavaScript},
		{"const javascript", "const x = 1;\nlet y = 2;", models.KindJavaScript},
		{"typescript annotation", "function greet(name: string) {\n  return name;\n}", models.KindTypeScript},
		{"typescript interface", "interface Foo {\n  bar: string;\n}", models.KindTypeScript},
		{"python def", "def foo():\n    return 1", models.KindPython},
		{"python shebang", "#!/usr/bin/env python\nprint('hi')", models.KindPython},
		{"python from import", "from os import path\npath.join('a', 'b')", models.KindPython},
		{"markdown heading", "# Title\n\nSome body text.", models.KindMarkdown},
		{"markdown fenced", "intro\n```\ncode here\n```", models.KindMarkdown},
		{"markdown link", "see [docs](https://example.com) for more", models.KindMarkdown},
		{"plain text", "just an ordinary sentence with nothing special", models.KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.content, nil)
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// TypeScript markers plus balanced braces: the JS/TS rule must win over
	// the generic-code rule further down the cascade.
	content := "interface Foo {}\nconst f = (x: number) => x;"
	if got := Classify(content, nil); got != models.KindTypeScript {
		t.Errorf("Classify() = %q, want typescript ahead of generic code", got)
	}

	// Malformed JSON must fall through the json rule, never be treated as
	// valid json.
	if got := Classify(`{"a":1`, nil); got == models.KindJSON {
		t.Error("malformed JSON classified as json")
	}

	// Element hint beats every content heuristic.
	sel := selection(t, `<pre><code class="language-python">{"a":1}</code></pre>`, "code")
	if got := Classify(`{"a":1}`, sel); got != models.KindPython {
		t.Errorf("Classify() = %q, want python from element hint over json content", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	content := "const a = 1;\nfunction f() { return a; }"
	first := Classify(content, nil)
	for i := 0; i < 5; i++ {
		if got := Classify(content, nil); got != first {
			t.Fatalf("Classify() unstable: %q then %q", first, got)
		}
	}
}

func TestClassifyElementHints(t *testing.T) {
	tests := []struct {
		name string
		html string
		sel  string
		want models.Kind
	}{
		{"language class", `<code class="language-typescript">x</code>`, "code", models.KindTypeScript},
		{"lang class", `<code class="lang-js">x</code>`, "code", models.KindJavaScript},
		{"data-language", `<div data-language="python">x</div>`, "div", models.KindPython},
		{"data-lang", `<div data-lang="json">x</div>`, "div", models.KindJSON},
		{"unknown declared language", `<code class="language-cobol">x</code>`, "code", models.KindCode},
		{"style tag", `<style>.a{color:red}</style>`, "style", models.KindCSS},
		{"script tag", `<script>var a=1</script>`, "script", models.KindJavaScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := selection(t, tt.html, tt.sel)
			got := Classify("placeholder content", sel)
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyGenericCodeElement(t *testing.T) {
	// Unhinted pre/code elements classify as generic code when nothing more
	// specific matches.
	sel := selection(t, `<pre>move r1, r2</pre>`, "pre")
	if got := Classify("move r1, r2", sel); got != models.KindCode {
		t.Errorf("Classify() = %q, want code for pre element", got)
	}

	sel = selection(t, `<pre><span>move r1, r2</span></pre>`, "span")
	if got := Classify("move r1, r2", sel); got != models.KindCode {
		t.Errorf("Classify() = %q, want code for element nested in pre", got)
	}
}

func TestProseLanguage(t *testing.T) {
	english := "The quick brown fox jumps over the lazy dog while the sun sets behind the hills."
	if got := ProseLanguage(english); got != "en" {
		t.Errorf("ProseLanguage(english) = %q, want %q", got, "en")
	}

	if got := ProseLanguage("too short"); got != "" {
		t.Errorf("ProseLanguage(short) = %q, want empty", got)
	}
}
