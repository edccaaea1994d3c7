package coordinator

import (
	"fmt"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/naming"
)

// downloadOne runs the download state machine for a single artifact:
// queued -> downloading -> completed|failed. Failure is terminal for the
// attempt; there is no automatic retry. When notify is true and
// notifications are enabled, a success or failure notice is issued (batch
// downloads pass false and aggregate instead).
func (c *Coordinator) downloadOne(artifactID string, notify bool) error {
	c.mu.Lock()
	artifact, ok := c.detected[artifactID]
	if !ok {
		c.mu.Unlock()
		// The coordinator never fabricates artifacts: an id that no
		// detection result produced is an input error.
		return fmt.Errorf("unknown artifact id %q", artifactID)
	}
	settings := c.settings
	submitter := c.submitter

	// The progress record exists, at queued with progress 0, before any
	// I/O happens.
	c.progress[artifactID] = models.DownloadProgress{
		ArtifactID: artifactID,
		Status:     models.StatusQueued,
		Progress:   0,
	}
	c.mu.Unlock()

	c.transition(artifactID, models.StatusDownloading, 0, "")

	filename := naming.Filename(artifact.Title, artifact.Kind, artifact.Language, time.Now(), settings.NamingMode)

	downloadID, path, err := submitter.Submit([]byte(artifact.Content), filename)
	now := time.Now().UnixMilli()

	if err != nil {
		c.transition(artifactID, models.StatusFailed, 0, err.Error())

		c.appendHistory(models.HistoryEntry{
			ArtifactID: artifactID,
			Title:      artifact.Title,
			Filename:   filename,
			Kind:       artifact.Kind,
			Checksum:   artifact.Checksum,
			Status:     models.StatusFailed,
			Error:      err.Error(),
			At:         now,
		})

		if notify && settings.Notifications {
			c.notifier.Error("Download failed", fmt.Sprintf("%s: %v", artifact.Title, err))
		}
		return err
	}

	c.transition(artifactID, models.StatusCompleted, 100, "")

	c.appendHistory(models.HistoryEntry{
		ArtifactID: artifactID,
		Title:      artifact.Title,
		Filename:   filename,
		Kind:       artifact.Kind,
		Checksum:   artifact.Checksum,
		DownloadID: downloadID,
		Status:     models.StatusCompleted,
		At:         now,
	})

	c.logger.Info("download completed", "artifact", artifactID, "path", path)

	if notify && settings.Notifications {
		c.notifier.Success("Download complete", artifact.Title)
	}
	return nil
}

// downloadBatch processes artifacts sequentially, never concurrently, and
// reports one aggregate summary notification instead of one per item.
// A failed item never aborts the rest of the batch.
func (c *Coordinator) downloadBatch(artifactIDs []string) (successful, failed int) {
	for _, id := range artifactIDs {
		if err := c.downloadOne(id, false); err != nil {
			c.logger.Warn("batch item failed", "artifact", id, "error", err)
			failed++
			continue
		}
		successful++
	}

	c.mu.Lock()
	notifications := c.settings.Notifications
	c.mu.Unlock()

	if notifications {
		summary := fmt.Sprintf("%d downloaded, %d failed", successful, failed)
		if failed > 0 {
			c.notifier.Warning("Batch download finished", summary)
		} else {
			c.notifier.Success("Batch download finished", summary)
		}
	}

	c.logger.Info("batch download finished", "successful", successful, "failed", failed)
	return successful, failed
}

// transition advances a download's state, enforcing the only legal order:
// queued -> downloading -> completed|failed. An illegal transition is a
// programming error and is logged and dropped rather than applied.
func (c *Coordinator) transition(artifactID string, next models.DownloadStatus, progress int, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.progress[artifactID]
	legal := ok && !current.Status.Terminal() &&
		((current.Status == models.StatusQueued && next == models.StatusDownloading) ||
			(current.Status == models.StatusDownloading && next.Terminal()))
	if !legal {
		c.logger.Error("illegal download state transition",
			"artifact", artifactID,
			"from", string(current.Status),
			"to", string(next))
		return
	}

	c.progress[artifactID] = models.DownloadProgress{
		ArtifactID: artifactID,
		Status:     next,
		Progress:   progress,
		Error:      errMsg,
	}
}

// appendHistory records a download attempt; storage failures are logged
// and swallowed so history trouble never fails a download that already
// happened.
func (c *Coordinator) appendHistory(entry models.HistoryEntry) {
	if err := c.store.AddHistoryEntry(entry); err != nil {
		c.logger.Error("failed to append download history", "artifact", entry.ArtifactID, "error", err)
	}
}
