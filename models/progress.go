package models

// DownloadStatus is a download attempt's position in its lifecycle.
// Transitions only move queued -> downloading -> completed|failed.
type DownloadStatus string

const (
	StatusQueued      DownloadStatus = "queued"
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s DownloadStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DownloadProgress tracks one download attempt for one artifact.
// Failure is terminal for the attempt; there is no automatic retry.
type DownloadProgress struct {
	ArtifactID string         `json:"artifactId" yaml:"artifact_id"`
	Status     DownloadStatus `json:"status" yaml:"status"`
	Progress   int            `json:"progress" yaml:"progress"` // 0-100
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// HistoryEntry is one completed or failed download as recorded in the
// bounded download history log.
type HistoryEntry struct {
	ArtifactID string         `json:"artifactId" yaml:"artifact_id"`
	Title      string         `json:"title" yaml:"title"`
	Filename   string         `json:"filename" yaml:"filename"`
	Kind       Kind           `json:"kind" yaml:"kind"`
	Checksum   string         `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	DownloadID string         `json:"downloadId,omitempty" yaml:"download_id,omitempty"`
	Status     DownloadStatus `json:"status" yaml:"status"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	At         int64          `json:"at" yaml:"at"` // unix millis
}
