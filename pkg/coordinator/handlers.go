package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/backend"
)

var errNoDetection = errors.New("no detection result available to sync")

// handleDetect ingests one detection result: cache the artifacts, update
// the badge and recent log, then run auto-download and auto-sync if their
// gates allow. Local delivery always runs before and independent of sync.
func (c *Coordinator) handleDetect(ctx context.Context, msg models.Message) models.Response {
	var result models.DetectionResult
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		return models.ErrResponse(fmt.Errorf("malformed detection payload: %w", err))
	}

	c.mu.Lock()
	for _, a := range result.Artifacts {
		c.detected[a.ID] = a
	}
	c.lastResult = &result
	c.badge = models.BadgeState{
		ArtifactCount: len(result.Artifacts),
		HostMatch:     true,
	}
	settings := c.settings
	c.mu.Unlock()

	for _, a := range result.Artifacts {
		if err := c.store.AddRecentArtifact(a); err != nil {
			// Storage trouble must not reject the detection.
			c.logger.Error("failed to record recent artifact", "artifact", a.ID, "error", err)
		}
	}

	c.logger.Info("detection result received",
		"artifacts", len(result.Artifacts),
		"conversation", result.Conversation.ID)

	if settings.AutoDownload && len(result.Artifacts) > 0 {
		ids := make([]string, len(result.Artifacts))
		for i, a := range result.Artifacts {
			ids[i] = a.ID
		}
		c.downloadBatch(ids)
	}

	c.autoSync(ctx, result)

	return models.OKResponse(map[string]int{"artifactCount": len(result.Artifacts)})
}

// autoSync forwards a detection result to the backend when auto-sync is on
// and the health monitor currently reports the backend reachable. A sync
// failure flips the reachability flag but never interrupts local flow.
func (c *Coordinator) autoSync(ctx context.Context, result models.DetectionResult) {
	c.mu.Lock()
	settings := c.settings
	client := c.backend
	c.mu.Unlock()

	if !settings.AutoSync {
		return
	}
	if !c.monitor.Reachable() {
		c.logger.Debug("auto-sync suppressed, backend unreachable")
		return
	}

	payload := backend.SyncPayload{
		URL:            result.URL,
		ConversationID: result.Conversation.ID,
		Artifacts:      result.Artifacts,
		Settings:       settings,
	}
	if err := client.Sync(ctx, payload); err != nil {
		c.monitor.SetReachable(false)
		c.logger.Warn("auto-sync failed", "error", err)
	}
}

// handleDownload serves both single and batch download requests.
func (c *Coordinator) handleDownload(_ context.Context, msg models.Message) models.Response {
	var req models.DownloadRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return models.ErrResponse(fmt.Errorf("malformed download payload: %w", err))
	}

	switch {
	case req.ArtifactID != "" && len(req.ArtifactIDs) > 0:
		return models.ErrResponse(errors.New("download request carries both a single id and a batch"))
	case req.ArtifactID != "":
		if err := c.downloadOne(req.ArtifactID, true); err != nil {
			return models.ErrResponse(err)
		}
		progress, _ := c.Progress(req.ArtifactID)
		return models.OKResponse(progress)
	case len(req.ArtifactIDs) > 0:
		successful, failed := c.downloadBatch(req.ArtifactIDs)
		return models.OKResponse(map[string]int{"successful": successful, "failed": failed})
	default:
		return models.ErrResponse(errors.New("download request names no artifacts"))
	}
}

// handleUpdateSettings replaces the settings document, persists it, and
// rebuilds collaborators whose configuration changed.
func (c *Coordinator) handleUpdateSettings(_ context.Context, msg models.Message) models.Response {
	var updated models.Settings
	if err := json.Unmarshal(msg.Payload, &updated); err != nil {
		return models.ErrResponse(fmt.Errorf("malformed settings payload: %w", err))
	}
	if !updated.NamingMode.Valid() {
		return models.ErrResponse(fmt.Errorf("unknown naming mode %q", updated.NamingMode))
	}

	c.mu.Lock()
	previous := c.settings
	c.mu.Unlock()

	if err := c.store.SaveSettings(updated); err != nil {
		return models.ErrResponse(err)
	}

	var submitter Submitter
	if updated.DownloadFolder != previous.DownloadFolder {
		var err error
		submitter, err = c.newSubmitter(updated.DownloadFolder)
		if err != nil {
			return models.ErrResponse(fmt.Errorf("failed to prepare download folder: %w", err))
		}
	}

	backendChanged := updated.BackendURL != previous.BackendURL || updated.APIKey != previous.APIKey
	var client Backend
	if backendChanged {
		client = c.newBackend(updated)
	}

	c.mu.Lock()
	c.settings = updated
	if submitter != nil {
		c.submitter = submitter
	}
	if client != nil {
		c.backend = client
	}
	c.mu.Unlock()

	if backendChanged {
		// Point the probe loop at the new address straight away.
		c.monitor.Restart(client)
		c.logger.Info("backend address changed, health monitor restarted", "backend", updated.BackendURL)
	}

	return models.OKResponse(updated)
}

// handleGetState answers with a full snapshot assembled from memory and the
// store.
func (c *Coordinator) handleGetState(_ context.Context, _ models.Message) models.Response {
	recents, err := c.store.RecentArtifacts(0)
	if err != nil {
		return models.ErrResponse(err)
	}

	c.mu.Lock()
	snapshot := models.StateSnapshot{
		Settings:         c.settings,
		RecentArtifacts:  recents,
		DownloadProgress: make(map[string]models.DownloadProgress, len(c.progress)),
		BackendReachable: c.monitor.Reachable(),
		Badge:            c.badge,
	}
	for id, p := range c.progress {
		snapshot.DownloadProgress[id] = p
	}
	c.mu.Unlock()

	return models.OKResponse(snapshot)
}

// handleSync performs a manual backend sync of the last detection result.
func (c *Coordinator) handleSync(ctx context.Context, _ models.Message) models.Response {
	c.mu.Lock()
	settings := c.settings
	client := c.backend
	result := c.lastResult
	c.mu.Unlock()

	if result == nil {
		return models.ErrResponse(errNoDetection)
	}

	payload := backend.SyncPayload{
		URL:            result.URL,
		ConversationID: result.Conversation.ID,
		Artifacts:      result.Artifacts,
		Settings:       settings,
	}
	if err := client.Sync(ctx, payload); err != nil {
		c.monitor.SetReachable(false)
		return models.ErrResponse(err)
	}

	c.monitor.SetReachable(true)
	return models.OKResponse(map[string]int{"synced": len(result.Artifacts)})
}

// handleToggleHighlight flips the highlight setting. Persist first, adopt
// in memory only on success, so memory never diverges from the store.
func (c *Coordinator) handleToggleHighlight(_ context.Context, _ models.Message) models.Response {
	c.mu.Lock()
	updated := c.settings
	c.mu.Unlock()
	updated.Highlight = !updated.Highlight

	if err := c.store.SaveSettings(updated); err != nil {
		return models.ErrResponse(err)
	}

	c.mu.Lock()
	c.settings = updated
	c.mu.Unlock()
	return models.OKResponse(map[string]bool{"highlight": updated.Highlight})
}
