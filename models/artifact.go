// Package models defines the shared data structures for artifact
// detection, download coordination, and backend sync.
package models

import "time"

// Kind is the closed set of content kinds an artifact can be classified as.
type Kind string

const (
	KindText       Kind = "text"
	KindCode       Kind = "code"
	KindHTML       Kind = "html"
	KindSVG        Kind = "svg"
	KindMarkdown   Kind = "markdown"
	KindJSON       Kind = "json"
	KindXML        Kind = "xml"
	KindCSS        Kind = "css"
	KindJavaScript Kind = "javascript"
	KindTypeScript Kind = "typescript"
	KindPython     Kind = "python"
	KindOther      Kind = "other"
)

// Artifact is one detected unit of structured content extracted from a page.
// Content is immutable once extracted; a re-detection produces a new Artifact
// with a fresh ID rather than mutating an old one.
type Artifact struct {
	ID             string    `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Content        string    `json:"content" yaml:"content"`
	Kind           Kind      `json:"kind" yaml:"kind"`
	Language       string    `json:"language,omitempty" yaml:"language,omitempty"`
	CreatedAt      time.Time `json:"createdAt" yaml:"created_at"`
	ConversationID string    `json:"conversationId" yaml:"conversation_id"`
	SourceURL      string    `json:"sourceUrl" yaml:"source_url"`
	Size           int       `json:"size" yaml:"size"`
	// Checksum is the 16-hex-char content fingerprint used for
	// cross-session dedup and sync correlation. Never a security token.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// ConversationInfo describes the conversation a scan ran against.
// Derived per scan from the page URL and DOM, not persisted independently.
type ConversationInfo struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	URL           string    `json:"url" yaml:"url"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	ArtifactCount int       `json:"artifactCount" yaml:"artifact_count"`
}

// DetectionResult is the bundle one scan emits: the ordered artifact list
// plus conversation metadata.
type DetectionResult struct {
	Artifacts    []Artifact       `json:"artifacts" yaml:"artifacts"`
	Conversation ConversationInfo `json:"conversation" yaml:"conversation"`
	URL          string           `json:"url" yaml:"url"`
	Timestamp    time.Time        `json:"timestamp" yaml:"timestamp"`
}
