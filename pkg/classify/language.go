package classify

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Detector construction loads language models, so it is built once on first
// prose detection rather than at package init.
var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// proseLanguages is the closed set of natural languages we tag. A small set
// keeps detection fast and avoids low-confidence guesses between close
// relatives.
var proseLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Korean,
}

// minProseLength guards against tagging fragments too short for reliable
// language statistics.
const minProseLength = 40

// ProseLanguage returns the lowercase ISO 639-1 code of the natural
// language of prose content, or "" when detection is not confident. Only
// meaningful for text/markdown artifacts; programming-language artifacts
// carry their declared language instead.
func ProseLanguage(content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minProseLength {
		return ""
	}

	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(proseLanguages...).
			Build()
	})

	language, ok := detector.DetectLanguageOf(trimmed)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
