// Package naming derives filesystem-safe download filenames from artifact
// metadata. Output is deterministic for identical inputs.
package naming

import (
	"regexp"
	"strings"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// maxBaseLength caps the filename base (before the extension).
const maxBaseLength = 100

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespace   = regexp.MustCompile(`\s+`)
	underscores  = regexp.MustCompile(`_+`)
)

// kindExtensions maps non-code kinds directly to an extension.
var kindExtensions = map[models.Kind]string{
	models.KindText:       ".txt",
	models.KindHTML:       ".html",
	models.KindSVG:        ".svg",
	models.KindMarkdown:   ".md",
	models.KindJSON:       ".json",
	models.KindXML:        ".xml",
	models.KindCSS:        ".css",
	models.KindJavaScript: ".js",
	models.KindTypeScript: ".ts",
	models.KindPython:     ".py",
	models.KindOther:      ".txt",
}

// codeExtensions maps a declared language to an extension for generic code
// artifacts. Unknown languages fall back to the generic text extension.
var codeExtensions = map[string]string{
	"javascript": ".js",
	"typescript": ".ts",
	"python":     ".py",
	"go":         ".go",
	"rust":       ".rs",
	"java":       ".java",
	"c":          ".c",
	"cpp":        ".cpp",
	"c++":        ".cpp",
	"csharp":     ".cs",
	"ruby":       ".rb",
	"php":        ".php",
	"swift":      ".swift",
	"kotlin":     ".kt",
	"shell":      ".sh",
	"bash":       ".sh",
	"sql":        ".sql",
	"html":       ".html",
	"css":        ".css",
	"yaml":       ".yaml",
	"json":       ".json",
	"xml":        ".xml",
	"markdown":   ".md",
}

// Filename derives a filesystem-safe filename for an artifact under the
// given naming mode.
func Filename(title string, kind models.Kind, language string, at time.Time, mode models.NamingMode) string {
	var base string
	switch mode {
	case models.NamingTimestamp:
		base = at.Format("2006-01-02T15-04-05")
	case models.NamingConversation:
		base = SanitizeBase(title) + "_" + at.Format("15-04-05")
	default: // original
		base = SanitizeBase(title)
	}

	if base == "" {
		base = "artifact_" + at.Format("2006-01-02T15-04-05")
	}
	if r := []rune(base); len(r) > maxBaseLength {
		base = strings.TrimRight(string(r[:maxBaseLength]), "_")
	}

	return base + Extension(kind, language)
}

// SanitizeBase replaces invalid filesystem characters and whitespace with
// underscores and collapses underscore runs.
func SanitizeBase(title string) string {
	s := invalidChars.ReplaceAllString(title, "_")
	s = whitespace.ReplaceAllString(s, "_")
	s = underscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Extension returns the extension for a kind, consulting the language map
// for generic code artifacts.
func Extension(kind models.Kind, language string) string {
	if kind == models.KindCode {
		if ext, ok := codeExtensions[strings.ToLower(language)]; ok {
			return ext
		}
		return ".txt"
	}
	if ext, ok := kindExtensions[kind]; ok {
		return ext
	}
	return ".txt"
}
