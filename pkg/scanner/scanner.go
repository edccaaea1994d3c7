// Package scanner is the page-context engine: it locates candidate content
// regions in a chat page document, extracts and classifies artifacts, applies
// highlight decorations, and emits one detection result per scan.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/bus"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/classify"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/identity"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/sanitize"
)

// minContentLength filters out noise elements whose extracted text is too
// short to be a meaningful artifact.
const minContentLength = 20

// containerSelectors locate artifact-bearing elements directly.
var containerSelectors = []string{
	"pre",
	"[data-artifact]",
	"[class*='artifact']",
	"[class*='code-block']",
}

// messageSelectors locate chat message containers whose nested code-like
// elements are also candidates.
var messageSelectors = []string{
	"[data-testid*='message']",
	"[class*='message']",
	"[data-message-id]",
}

// nestedSelector picks code-like elements inside message containers.
const nestedSelector = "pre, code"

// Scanner extracts artifacts from documents of one target host.
type Scanner struct {
	logger     *slog.Logger
	targetHost string
	highlight  bool

	// artifacts is the in-memory list from the latest scan. A re-scan
	// fully replaces it.
	artifacts []models.Artifact
}

// New creates a scanner bound to a target host, e.g. "chat.example.com".
// An empty host disables the host gate (used by the one-shot CLI path).
func New(logger *slog.Logger, targetHost string, highlight bool) *Scanner {
	return &Scanner{
		logger:     logger,
		targetHost: targetHost,
		highlight:  highlight,
	}
}

// SetHighlight toggles highlight decoration for subsequent scans.
func (s *Scanner) SetHighlight(on bool) {
	s.highlight = on
}

// MatchesHost reports whether pageURL belongs to the target host.
func (s *Scanner) MatchesHost(pageURL string) bool {
	if s.targetHost == "" {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	target := strings.ToLower(s.targetHost)
	return host == target || strings.HasSuffix(host, "."+target)
}

// Artifacts returns the artifact list from the latest scan.
func (s *Scanner) Artifacts() []models.Artifact {
	return s.artifacts
}

// Scan runs one full detection pass over the document and returns the
// detection result. Per-element extraction failures are logged and skipped;
// a scan never aborts because one element was malformed.
//
// Scanning is idempotent against an unchanged document: same elements in the
// same order produce the same artifact set with the same fingerprints, but
// identifiers are freshly generated each pass.
func (s *Scanner) Scan(doc *goquery.Document, pageURL string) (models.DetectionResult, error) {
	if !s.MatchesHost(pageURL) {
		return models.DetectionResult{}, fmt.Errorf("page %s does not match target host %s", pageURL, s.targetHost)
	}

	now := time.Now()
	candidates := s.collectCandidates(doc)

	conversation := deriveConversation(doc, pageURL, now)

	artifacts := make([]models.Artifact, 0, len(candidates))
	selections := make([]*goquery.Selection, 0, len(candidates))
	for _, sel := range candidates {
		artifact, err := s.extract(sel, pageURL, conversation.ID, now)
		if err != nil {
			s.logger.Debug("skipping element", "error", err)
			continue
		}
		artifacts = append(artifacts, artifact)
		selections = append(selections, sel)
	}

	if s.highlight {
		s.decorate(selections, artifacts)
	}

	conversation.ArtifactCount = len(artifacts)
	s.artifacts = artifacts

	return models.DetectionResult{
		Artifacts:    artifacts,
		Conversation: conversation,
		URL:          pageURL,
		Timestamp:    now,
	}, nil
}

// Emit sends a detection result to the background context over the bus.
func (s *Scanner) Emit(ctx context.Context, b *bus.Bus, result models.DetectionResult) error {
	msg, err := models.NewMessage(models.MsgDetectArtifacts, models.SourceContent, result)
	if err != nil {
		return err
	}
	resp, err := b.Send(ctx, msg)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("detection result rejected: %s", resp.Error)
	}
	return nil
}

// collectCandidates gathers candidate elements from the container selectors
// plus code-like elements nested in message containers, deduplicated by
// node and filtered by the minimum-length noise gate.
func (s *Scanner) collectCandidates(doc *goquery.Document) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var out []*goquery.Selection

	add := func(sel *goquery.Selection) {
		if sel.Length() == 0 {
			return
		}
		node := sel.Get(0)
		if seen[node] {
			return
		}
		// A pre's inner code duplicates its parent's text; keep the
		// outermost element only.
		if sel.ParentsFiltered("pre").Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) < minContentLength {
			return
		}
		seen[node] = true
		out = append(out, sel)
	}

	for _, selector := range containerSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			add(sel)
		})
	}

	for _, selector := range messageSelectors {
		doc.Find(selector).Each(func(_ int, msg *goquery.Selection) {
			msg.Find(nestedSelector).Each(func(_ int, sel *goquery.Selection) {
				add(sel)
			})
		})
	}

	return out
}

// extract runs the full pipeline for one element: sanitize, classify, infer
// a title, fingerprint, and assemble the artifact record.
func (s *Scanner) extract(sel *goquery.Selection, pageURL, conversationID string, now time.Time) (models.Artifact, error) {
	raw := sel.Text()
	content := sanitize.Clean(raw)
	if len(content) < minContentLength {
		return models.Artifact{}, fmt.Errorf("content below minimum length after sanitizing (%d chars)", len(content))
	}

	kind := classify.Classify(content, sel)
	language := artifactLanguage(sel, kind, content)
	title := inferTitle(sel, kind, now)

	return models.Artifact{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        content,
		Kind:           kind,
		Language:       language,
		CreatedAt:      now,
		ConversationID: conversationID,
		SourceURL:      pageURL,
		Size:           len(content),
		Checksum:       identity.Fingerprint(content),
	}, nil
}

// artifactLanguage picks the language metadata: the declared programming
// language when present, the detected natural language for prose kinds.
func artifactLanguage(sel *goquery.Selection, kind models.Kind, content string) string {
	if lang := classify.DeclaredLanguage(sel); lang != "" {
		return lang
	}
	switch kind {
	case models.KindJavaScript:
		return "javascript"
	case models.KindTypeScript:
		return "typescript"
	case models.KindPython:
		return "python"
	case models.KindText, models.KindMarkdown:
		return classify.ProseLanguage(content)
	}
	return ""
}
