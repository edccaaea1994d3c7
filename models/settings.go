package models

// NamingMode selects how download filenames are derived from artifact metadata.
type NamingMode string

const (
	// NamingOriginal uses the sanitized artifact title alone.
	NamingOriginal NamingMode = "original"
	// NamingTimestamp uses an ISO timestamp alone.
	NamingTimestamp NamingMode = "timestamp"
	// NamingConversation uses the sanitized title plus a short time suffix.
	NamingConversation NamingMode = "conversation"
)

// Valid reports whether m is one of the known naming modes.
func (m NamingMode) Valid() bool {
	switch m {
	case NamingOriginal, NamingTimestamp, NamingConversation:
		return true
	}
	return false
}

// Settings is the process-wide configuration owned by the coordinator.
// Loaded from persistent storage at startup, mirrored in memory, and pushed
// back to storage on every update. Reset restores defaults, never deletes.
type Settings struct {
	BackendURL     string     `json:"backendUrl" yaml:"backend_url"`
	APIKey         string     `json:"apiKey,omitempty" yaml:"api_key,omitempty"`
	AutoSync       bool       `json:"autoSync" yaml:"auto_sync"`
	AutoDownload   bool       `json:"autoDownload" yaml:"auto_download"`
	DownloadFolder string     `json:"downloadFolder" yaml:"download_folder"`
	NamingMode     NamingMode `json:"namingMode" yaml:"naming_mode"`
	Detection      bool       `json:"detection" yaml:"detection"`
	Highlight      bool       `json:"highlight" yaml:"highlight"`
	Notifications  bool       `json:"notifications" yaml:"notifications"`
}

// DefaultSettings returns the first-run configuration.
func DefaultSettings() Settings {
	return Settings{
		BackendURL:     "http://localhost:8000",
		AutoSync:       false,
		AutoDownload:   false,
		DownloadFolder: "artifactor-downloads",
		NamingMode:     NamingConversation,
		Detection:      true,
		Highlight:      true,
		Notifications:  true,
	}
}
