package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType is the closed set of request types carried by the bus.
type MessageType string

const (
	MsgDetectArtifacts  MessageType = "detect-artifacts"
	MsgDownloadArtifact MessageType = "download-artifact"
	MsgUpdateSettings   MessageType = "update-settings"
	MsgGetState         MessageType = "get-state"
	MsgSyncBackend      MessageType = "sync-backend"
	MsgToggleHighlight  MessageType = "toggle-highlight"
)

// Valid reports whether t names a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MsgDetectArtifacts, MsgDownloadArtifact, MsgUpdateSettings,
		MsgGetState, MsgSyncBackend, MsgToggleHighlight:
		return true
	}
	return false
}

// MessageSource identifies the context a message originated from.
type MessageSource string

const (
	SourceContent    MessageSource = "content"
	SourcePopup      MessageSource = "popup"
	SourceBackground MessageSource = "background"
	SourceOptions    MessageSource = "options"
)

// Message is one request on the bus. Payload is raw JSON so each handler
// decodes only the shape it expects; a malformed payload is an input error
// rejected with an error response, not a dropped request.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Source    MessageSource   `json:"source"`
}

// NewMessage builds a request of the given type with the payload marshalled
// in place and the timestamp set to now.
func NewMessage(t MessageType, source MessageSource, payload any) (Message, error) {
	m := Message{Type: t, Timestamp: time.Now(), Source: source}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
		}
		m.Payload = raw
	}
	return m, nil
}

// Response is the single reply every request receives. A failure at any
// point in handling is folded into Success=false plus Error; the request is
// never left unanswered.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OKResponse wraps data in a successful response.
func OKResponse(data any) Response {
	if data == nil {
		return Response{Success: true}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("failed to marshal response data: %v", err)}
	}
	return Response{Success: true, Data: raw}
}

// ErrResponse wraps an error in a failure response.
func ErrResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// DownloadRequest is the payload of a download-artifact message. Either a
// single ArtifactID or a batch of ArtifactIDs is set, never both.
type DownloadRequest struct {
	ArtifactID  string   `json:"artifactId,omitempty"`
	ArtifactIDs []string `json:"artifacts,omitempty"`
}

// StateSnapshot is the payload of a get-state response.
type StateSnapshot struct {
	Settings         Settings                    `json:"settings"`
	RecentArtifacts  []Artifact                  `json:"recentArtifacts"`
	DownloadProgress map[string]DownloadProgress `json:"downloadProgress"`
	BackendReachable bool                        `json:"backendReachable"`
	Badge            BadgeState                  `json:"badge"`
}

// BadgeState mirrors the extension badge: detected-artifact count plus
// whether the current page matched the target host.
type BadgeState struct {
	ArtifactCount int  `json:"artifactCount"`
	HostMatch     bool `json:"hostMatch"`
}
