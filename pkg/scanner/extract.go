package scanner

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/sanitize"
)

// headingSelector matches elements usable as a preceding title.
const headingSelector = "h1, h2, h3, h4, h5, h6, label, [class*='title']"

// titleAttrs are ancestor attributes that can carry a title.
var titleAttrs = []string{"title", "data-title", "aria-label"}

// maxTitleLength truncates inferred titles.
const maxTitleLength = 80

// inferTitle derives a human title for an artifact element: a preceding
// heading/label sibling first, then an ancestor carrying a title-like
// attribute, then a synthesized "<Kind> Artifact <time>" fallback.
func inferTitle(sel *goquery.Selection, kind models.Kind, now time.Time) string {
	if prev := sel.PrevAllFiltered(headingSelector).First(); prev.Length() > 0 {
		if title := tidyTitle(prev.Text()); title != "" {
			return title
		}
	}

	found := ""
	sel.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		for _, attr := range titleAttrs {
			if v, ok := p.Attr(attr); ok {
				if title := tidyTitle(v); title != "" {
					found = title
					return false
				}
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	return titleKind(kind) + " Artifact " + now.Format("15:04:05")
}

// tidyTitle sanitizes and truncates candidate title text.
func tidyTitle(raw string) string {
	title := sanitize.Clean(raw)
	title = strings.Join(strings.Fields(title), " ")
	if r := []rune(title); len(r) > maxTitleLength {
		title = strings.TrimSpace(string(r[:maxTitleLength]))
	}
	return title
}

// titleKind renders a kind for synthesized titles.
func titleKind(kind models.Kind) string {
	if kind == "" {
		return "Text"
	}
	s := string(kind)
	return strings.ToUpper(s[:1]) + s[1:]
}

// deriveConversation builds the per-scan conversation metadata from the
// page URL and document. Nothing here is persisted independently.
func deriveConversation(doc *goquery.Document, pageURL string, now time.Time) models.ConversationInfo {
	info := models.ConversationInfo{
		ID:        conversationIDFromURL(pageURL),
		URL:       pageURL,
		Timestamp: now,
	}

	info.Title = tidyTitle(doc.Find("title").First().Text())
	if info.Title == "" {
		info.Title = readabilityTitle(doc, pageURL)
	}
	if info.Title == "" {
		info.Title = "Conversation " + now.Format("2006-01-02 15:04")
	}

	return info
}

// conversationIDFromURL takes the last non-empty path segment as the
// conversation id, falling back to the host.
func conversationIDFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	if u.Host != "" {
		return u.Host
	}
	return "unknown"
}

// readabilityTitle asks go-readability for a title when the document has no
// usable <title>. Messy chat DOMs often bury the real title in app markup.
func readabilityTitle(doc *goquery.Document, pageURL string) string {
	htmlStr, err := doc.Html()
	if err != nil {
		return ""
	}
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(htmlStr), parsedURL)
	if err != nil {
		return ""
	}
	return tidyTitle(article.Title)
}
