package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// LoadSettings returns the persisted settings, falling back to defaults on
// first run (and persisting them so later loads see the same document).
func (s *Store) LoadSettings() (models.Settings, error) {
	var doc string
	err := s.QueryRow("SELECT document FROM settings WHERE id = 1").Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := models.DefaultSettings()
		if saveErr := s.SaveSettings(defaults); saveErr != nil {
			return models.Settings{}, fmt.Errorf("failed to persist default settings: %w", saveErr)
		}
		return defaults, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal([]byte(doc), &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings document: %w", err)
	}
	return settings, nil
}

// SaveSettings writes the settings document (upsert on the fixed row).
func (s *Store) SaveSettings(settings models.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.Exec(`
		INSERT INTO settings (id, document, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP
	`, string(doc))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ResetSettings restores defaults. The row is rewritten, never deleted.
func (s *Store) ResetSettings() (models.Settings, error) {
	defaults := models.DefaultSettings()
	if err := s.SaveSettings(defaults); err != nil {
		return models.Settings{}, err
	}
	return defaults, nil
}

// AddRecentArtifact inserts an artifact at the head of the recent log,
// replacing any prior entry with the same checksum, then evicts past the
// cap. Content itself is not persisted here, only detection metadata.
func (s *Store) AddRecentArtifact(a models.Artifact) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Same fingerprint means the same logical artifact: drop the stale
	// entry so the log holds one row per content identity.
	if a.Checksum != "" {
		if _, err := tx.Exec("DELETE FROM recent_artifacts WHERE checksum = ?", a.Checksum); err != nil {
			return fmt.Errorf("failed to dedup recent artifact: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO recent_artifacts
			(artifact_id, checksum, title, kind, language, conversation_id, source_url, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Checksum, a.Title, string(a.Kind), a.Language, a.ConversationID, a.SourceURL, a.Size, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recent artifact: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM recent_artifacts WHERE row_id NOT IN (
			SELECT row_id FROM recent_artifacts ORDER BY row_id DESC LIMIT ?
		)
	`, RecentArtifactsCap)
	if err != nil {
		return fmt.Errorf("failed to evict old recent artifacts: %w", err)
	}

	return tx.Commit()
}

// RecentArtifacts returns up to limit entries, most recent first. limit <= 0
// means the full capped log.
func (s *Store) RecentArtifacts(limit int) ([]models.Artifact, error) {
	if limit <= 0 || limit > RecentArtifactsCap {
		limit = RecentArtifactsCap
	}

	rows, err := s.Query(`
		SELECT artifact_id, checksum, title, kind, language, conversation_id, source_url, size_bytes, created_at
		FROM recent_artifacts ORDER BY row_id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []models.Artifact
	for rows.Next() {
		var a models.Artifact
		var kind string
		var language, conversationID, sourceURL sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&a.ID, &a.Checksum, &a.Title, &kind, &language, &conversationID, &sourceURL, &a.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent artifact: %w", err)
		}
		a.Kind = models.Kind(kind)
		a.Language = language.String
		a.ConversationID = conversationID.String
		a.SourceURL = sourceURL.String
		a.CreatedAt = createdAt
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// AddHistoryEntry appends a download attempt to the history log and evicts
// past the cap.
func (s *Store) AddHistoryEntry(e models.HistoryEntry) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO download_history (artifact_id, title, filename, kind, checksum, download_id, status, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ArtifactID, e.Title, e.Filename, string(e.Kind), e.Checksum, e.DownloadID, string(e.Status), e.Error, e.At)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM download_history WHERE row_id NOT IN (
			SELECT row_id FROM download_history ORDER BY row_id DESC LIMIT ?
		)
	`, DownloadHistoryCap)
	if err != nil {
		return fmt.Errorf("failed to evict old history entries: %w", err)
	}

	return tx.Commit()
}

// DownloadHistory returns up to limit entries, most recent first. limit <= 0
// means the full capped log.
func (s *Store) DownloadHistory(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > DownloadHistoryCap {
		limit = DownloadHistoryCap
	}

	rows, err := s.Query(`
		SELECT artifact_id, title, filename, kind, checksum, download_id, status, error, at
		FROM download_history ORDER BY row_id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query download history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var kind, status string
		var checksum, downloadID, errMsg sql.NullString
		if err := rows.Scan(&e.ArtifactID, &e.Title, &e.Filename, &kind, &checksum, &downloadID, &status, &errMsg, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Kind = models.Kind(kind)
		e.Status = models.DownloadStatus(status)
		e.Checksum = checksum.String
		e.DownloadID = downloadID.String
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
