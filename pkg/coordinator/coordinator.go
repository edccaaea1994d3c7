// Package coordinator is the background-context engine: it consumes
// detection results, drives the per-artifact download state machine,
// persists settings and history, and maintains the health-gated sync
// channel to the backend.
//
// The coordinator is the single owner of process-wide state. The host can
// tear the background context down at any idle point, so Init rehydrates
// everything from the store instead of trusting memory to survive between
// messages.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/backend"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/bus"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/health"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/store"
)

// Backend is the slice of the REST client the coordinator needs. Satisfied
// by *backend.Client; faked in tests.
type Backend interface {
	Sync(ctx context.Context, payload backend.SyncPayload) error
	Process(ctx context.Context, payload backend.SyncPayload) error
	Health(ctx context.Context) error
	BaseURL() string
}

// Submitter delivers artifact content to local storage. Satisfied by
// *downloads.Submitter.
type Submitter interface {
	Submit(content []byte, filename string) (id, path string, err error)
}

// Config wires the coordinator's collaborators.
type Config struct {
	Logger   *slog.Logger
	Store    *store.Store
	Notifier Notifier
	Monitor  *health.Monitor

	// NewBackend builds a client for the current settings; called again
	// whenever a settings update changes the backend address or key.
	NewBackend func(models.Settings) Backend

	// NewSubmitter builds a submitter for a download folder; called again
	// whenever the folder setting changes.
	NewSubmitter func(folder string) (Submitter, error)
}

// Coordinator owns settings, the detected-artifact cache, the download
// progress map, and the bounded history logs.
type Coordinator struct {
	logger   *slog.Logger
	store    *store.Store
	notifier Notifier
	monitor  *health.Monitor

	newBackend   func(models.Settings) Backend
	newSubmitter func(folder string) (Submitter, error)

	mu        sync.Mutex
	settings  models.Settings
	backend   Backend
	submitter Submitter

	// detected is the in-memory artifact cache from detection results;
	// every download or history entry must trace back to it.
	detected   map[string]models.Artifact
	progress   map[string]models.DownloadProgress
	lastResult *models.DetectionResult
	badge      models.BadgeState
}

// New creates an uninitialized coordinator. Call Init before serving.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		logger:       cfg.Logger,
		store:        cfg.Store,
		notifier:     cfg.Notifier,
		monitor:      cfg.Monitor,
		newBackend:   cfg.NewBackend,
		newSubmitter: cfg.NewSubmitter,
		detected:     make(map[string]models.Artifact),
		progress:     make(map[string]models.DownloadProgress),
	}
}

// Init rehydrates state from persistent storage: settings (defaults on
// first run) and the submitter/backend built from them. Safe to call again
// after a teardown; in-memory caches reset, persisted state survives.
func (c *Coordinator) Init(ctx context.Context) error {
	settings, err := c.store.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to rehydrate settings: %w", err)
	}

	submitter, err := c.newSubmitter(settings.DownloadFolder)
	if err != nil {
		return fmt.Errorf("failed to prepare download folder: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
	c.submitter = submitter
	c.backend = c.newBackend(settings)
	c.detected = make(map[string]models.Artifact)
	c.progress = make(map[string]models.DownloadProgress)
	c.lastResult = nil
	c.badge = models.BadgeState{}

	c.logger.Info("coordinator initialized",
		"backend", settings.BackendURL,
		"auto_sync", settings.AutoSync,
		"naming_mode", string(settings.NamingMode))
	return nil
}

// Register installs the coordinator's handlers for every message type it
// serves.
func (c *Coordinator) Register(b *bus.Bus) {
	b.Handle(models.MsgDetectArtifacts, c.handleDetect)
	b.Handle(models.MsgDownloadArtifact, c.handleDownload)
	b.Handle(models.MsgUpdateSettings, c.handleUpdateSettings)
	b.Handle(models.MsgGetState, c.handleGetState)
	b.Handle(models.MsgSyncBackend, c.handleSync)
	b.Handle(models.MsgToggleHighlight, c.handleToggleHighlight)
}

// Settings returns a copy of the current settings.
func (c *Coordinator) Settings() models.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Badge returns the current badge state: detected-artifact count and
// host-match flag.
func (c *Coordinator) Badge() models.BadgeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.badge
}

// Progress returns the download progress record for an artifact, if any.
func (c *Coordinator) Progress(artifactID string) (models.DownloadProgress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.progress[artifactID]
	return p, ok
}
