package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/backend"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/health"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/identity"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeBackend records sync payloads and fails on demand.
type fakeBackend struct {
	mu       sync.Mutex
	syncs    []backend.SyncPayload
	failSync bool
	baseURL  string
}

func (f *fakeBackend) Sync(_ context.Context, p backend.SyncPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSync {
		return errors.New("backend down")
	}
	f.syncs = append(f.syncs, p)
	return nil
}

func (f *fakeBackend) Process(_ context.Context, _ backend.SyncPayload) error { return nil }
func (f *fakeBackend) Health(_ context.Context) error                        { return nil }
func (f *fakeBackend) BaseURL() string                                       { return f.baseURL }

func (f *fakeBackend) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.syncs)
}

// fakeSubmitter fails for artifact content containing a marker string.
type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []string // filenames
	failOn    string
}

func (f *fakeSubmitter) Submit(content []byte, filename string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && string(content) == f.failOn {
		return "", "", errors.New("disk full")
	}
	f.submitted = append(f.submitted, filename)
	return fmt.Sprintf("dl-%d", len(f.submitted)), "/downloads/" + filename, nil
}

// fakeNotifier counts notices per severity.
type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	warnings  []string
	errs      []string
}

func (f *fakeNotifier) Success(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes = append(f.successes, title+": "+message)
}

func (f *fakeNotifier) Warning(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, title+": "+message)
}

func (f *fakeNotifier) Error(title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, title+": "+message)
}

func (f *fakeNotifier) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.successes) + len(f.warnings) + len(f.errs)
}

type fixture struct {
	coord     *Coordinator
	store     *store.Store
	backend   *fakeBackend
	submitter *fakeSubmitter
	notifier  *fakeNotifier
	monitor   *health.Monitor
}

func setup(t *testing.T) *fixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	fb := &fakeBackend{baseURL: "http://localhost:8000"}
	fs := &fakeSubmitter{}
	fn := &fakeNotifier{}
	monitor := health.NewMonitor(testLogger(), fb, time.Minute)

	coord := New(Config{
		Logger:   testLogger(),
		Store:    s,
		Notifier: fn,
		Monitor:  monitor,
		NewBackend: func(settings models.Settings) Backend {
			fb.mu.Lock()
			fb.baseURL = settings.BackendURL
			fb.mu.Unlock()
			return fb
		},
		NewSubmitter: func(string) (Submitter, error) { return fs, nil },
	})
	if err := coord.Init(context.Background()); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	return &fixture{coord: coord, store: s, backend: fb, submitter: fs, notifier: fn, monitor: monitor}
}

func detectionResult(artifacts ...models.Artifact) models.DetectionResult {
	return models.DetectionResult{
		Artifacts: artifacts,
		Conversation: models.ConversationInfo{
			ID:            "conv-1",
			Title:         "Test Conversation",
			URL:           "https://chat.example.com/c/conv-1",
			Timestamp:     time.Now(),
			ArtifactCount: len(artifacts),
		},
		URL:       "https://chat.example.com/c/conv-1",
		Timestamp: time.Now(),
	}
}

func artifact(id, content string) models.Artifact {
	return models.Artifact{
		ID:             id,
		Title:          "Artifact " + id,
		Content:        content,
		Kind:           models.KindPython,
		Language:       "python",
		CreatedAt:      time.Now(),
		ConversationID: "conv-1",
		SourceURL:      "https://chat.example.com/c/conv-1",
		Size:           len(content),
		Checksum:       identity.Fingerprint(content),
	}
}

func (f *fixture) detect(t *testing.T, result models.DetectionResult) models.Response {
	t.Helper()
	msg, err := models.NewMessage(models.MsgDetectArtifacts, models.SourceContent, result)
	if err != nil {
		t.Fatalf("NewMessage() failed: %v", err)
	}
	return f.coord.handleDetect(context.Background(), msg)
}

func (f *fixture) download(t *testing.T, req models.DownloadRequest) models.Response {
	t.Helper()
	msg, err := models.NewMessage(models.MsgDownloadArtifact, models.SourcePopup, req)
	if err != nil {
		t.Fatalf("NewMessage() failed: %v", err)
	}
	return f.coord.handleDownload(context.Background(), msg)
}

func TestDetectUpdatesBadgeAndRecents(t *testing.T) {
	f := setup(t)

	resp := f.detect(t, detectionResult(artifact("a1", "def one(): pass"), artifact("a2", "def two(): pass")))
	if !resp.Success {
		t.Fatalf("detect failed: %s", resp.Error)
	}

	badge := f.coord.Badge()
	if badge.ArtifactCount != 2 || !badge.HostMatch {
		t.Errorf("badge = %+v, want count 2 with host match", badge)
	}

	recents, err := f.store.RecentArtifacts(0)
	if err != nil {
		t.Fatalf("RecentArtifacts() failed: %v", err)
	}
	if len(recents) != 2 {
		t.Errorf("persisted %d recent artifacts, want 2", len(recents))
	}
}

func TestDownloadUnknownArtifactRejected(t *testing.T) {
	f := setup(t)

	resp := f.download(t, models.DownloadRequest{ArtifactID: "never-detected"})
	if resp.Success {
		t.Error("download of an id no detection produced was accepted")
	}
}

func TestDownloadStateMachine(t *testing.T) {
	f := setup(t)
	f.detect(t, detectionResult(artifact("a1", "def one(): pass")))

	resp := f.download(t, models.DownloadRequest{ArtifactID: "a1"})
	if !resp.Success {
		t.Fatalf("download failed: %s", resp.Error)
	}

	progress, ok := f.coord.Progress("a1")
	if !ok {
		t.Fatal("no progress record after download")
	}
	if progress.Status != models.StatusCompleted || progress.Progress != 100 {
		t.Errorf("progress = %+v, want completed at 100", progress)
	}

	history, err := f.store.DownloadHistory(0)
	if err != nil {
		t.Fatalf("DownloadHistory() failed: %v", err)
	}
	if len(history) != 1 || history[0].Status != models.StatusCompleted {
		t.Errorf("history = %+v, want one completed entry", history)
	}

	if len(f.notifier.successes) != 1 {
		t.Errorf("%d success notifications, want 1", len(f.notifier.successes))
	}
}

func TestDownloadFailureTerminal(t *testing.T) {
	f := setup(t)
	f.submitter.failOn = "broken content here"
	f.detect(t, detectionResult(artifact("a1", "broken content here")))

	resp := f.download(t, models.DownloadRequest{ArtifactID: "a1"})
	if resp.Success {
		t.Error("failed download reported success")
	}

	progress, _ := f.coord.Progress("a1")
	if progress.Status != models.StatusFailed {
		t.Errorf("status = %s, want failed", progress.Status)
	}
	if progress.Error == "" {
		t.Error("failure recorded no error message")
	}
	if progress.Progress == 100 {
		t.Error("failed download reached progress 100")
	}

	if len(f.notifier.errs) != 1 {
		t.Errorf("%d error notifications, want 1", len(f.notifier.errs))
	}

	// History records the failed attempt too.
	history, _ := f.store.DownloadHistory(0)
	if len(history) != 1 || history[0].Error == "" {
		t.Errorf("history = %+v, want one failed entry with error", history)
	}
}

func TestBatchDownloadSingleSummary(t *testing.T) {
	f := setup(t)
	f.submitter.failOn = "item that will fail"

	arts := []models.Artifact{
		artifact("b1", "def a(): pass"),
		artifact("b2", "item that will fail"),
		artifact("b3", "def c(): pass"),
		artifact("b4", "def d(): pass"),
	}
	f.detect(t, detectionResult(arts...))

	resp := f.download(t, models.DownloadRequest{ArtifactIDs: []string{"b1", "b2", "b3", "b4"}})
	if !resp.Success {
		t.Fatalf("batch download failed: %s", resp.Error)
	}

	var counts map[string]int
	if err := json.Unmarshal(resp.Data, &counts); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	if counts["successful"] != 3 || counts["failed"] != 1 {
		t.Errorf("counts = %+v, want successful=3 failed=1", counts)
	}

	// Exactly one notification for the whole batch, the warning summary.
	if f.notifier.total() != 1 {
		t.Fatalf("%d notifications for batch, want exactly 1", f.notifier.total())
	}
	if len(f.notifier.warnings) != 1 {
		t.Errorf("summary severity wrong: %+v", f.notifier)
	}
}

func TestBatchItemFailureDoesNotAbort(t *testing.T) {
	f := setup(t)
	f.submitter.failOn = "fails"

	f.detect(t, detectionResult(artifact("c1", "fails"), artifact("c2", "def ok(): pass")))
	f.download(t, models.DownloadRequest{ArtifactIDs: []string{"c1", "c2"}})

	progress, _ := f.coord.Progress("c2")
	if progress.Status != models.StatusCompleted {
		t.Errorf("later batch item status = %s, want completed despite earlier failure", progress.Status)
	}
}

func TestAutoSyncGatedByHealth(t *testing.T) {
	f := setup(t)

	// Enable auto-sync.
	settings := f.coord.Settings()
	settings.AutoSync = true
	msg, _ := models.NewMessage(models.MsgUpdateSettings, models.SourceOptions, settings)
	if resp := f.coord.handleUpdateSettings(context.Background(), msg); !resp.Success {
		t.Fatalf("settings update failed: %s", resp.Error)
	}

	// Backend unreachable: sync suppressed, local detection still works.
	f.monitor.SetReachable(false)
	resp := f.detect(t, detectionResult(artifact("a1", "def one(): pass")))
	if !resp.Success {
		t.Fatalf("detect failed while backend down: %s", resp.Error)
	}
	if f.backend.syncCount() != 0 {
		t.Errorf("sync sent while unreachable: %d", f.backend.syncCount())
	}

	// Backend reachable: sync goes out.
	f.monitor.SetReachable(true)
	f.detect(t, detectionResult(artifact("a2", "def two(): pass")))
	if f.backend.syncCount() != 1 {
		t.Errorf("sync count = %d, want 1", f.backend.syncCount())
	}

	// Sync failure flips reachability but detection still succeeds.
	f.backend.failSync = true
	resp = f.detect(t, detectionResult(artifact("a3", "def three(): pass")))
	if !resp.Success {
		t.Fatalf("detect failed when sync errored: %s", resp.Error)
	}
	if f.monitor.Reachable() {
		t.Error("reachability flag not flipped by sync failure")
	}
}

func TestAutoDownloadOnDetection(t *testing.T) {
	f := setup(t)

	settings := f.coord.Settings()
	settings.AutoDownload = true
	msg, _ := models.NewMessage(models.MsgUpdateSettings, models.SourceOptions, settings)
	f.coord.handleUpdateSettings(context.Background(), msg)

	f.detect(t, detectionResult(artifact("a1", "def one(): pass"), artifact("a2", "def two(): pass")))

	f.submitter.mu.Lock()
	submitted := len(f.submitter.submitted)
	f.submitter.mu.Unlock()
	if submitted != 2 {
		t.Errorf("auto-download submitted %d files, want 2", submitted)
	}
}

func TestUpdateSettingsValidatesNamingMode(t *testing.T) {
	f := setup(t)

	settings := f.coord.Settings()
	settings.NamingMode = "bogus"
	msg, _ := models.NewMessage(models.MsgUpdateSettings, models.SourceOptions, settings)
	resp := f.coord.handleUpdateSettings(context.Background(), msg)
	if resp.Success {
		t.Error("unknown naming mode accepted")
	}
}

func TestSettingsSurviveReinit(t *testing.T) {
	f := setup(t)

	settings := f.coord.Settings()
	settings.AutoSync = true
	settings.NamingMode = models.NamingTimestamp
	msg, _ := models.NewMessage(models.MsgUpdateSettings, models.SourceOptions, settings)
	if resp := f.coord.handleUpdateSettings(context.Background(), msg); !resp.Success {
		t.Fatalf("settings update failed: %s", resp.Error)
	}

	// Host teardown: memory is gone, persistent state is not.
	if err := f.coord.Init(context.Background()); err != nil {
		t.Fatalf("reinit failed: %v", err)
	}

	got := f.coord.Settings()
	if !got.AutoSync || got.NamingMode != models.NamingTimestamp {
		t.Errorf("settings after reinit = %+v, want persisted values", got)
	}

	// The detected-artifact cache does not survive teardown.
	resp := f.download(t, models.DownloadRequest{ArtifactID: "a1"})
	if resp.Success {
		t.Error("download served from a cache that should have been reset")
	}
}

func TestManualSyncWithoutDetection(t *testing.T) {
	f := setup(t)

	msg, _ := models.NewMessage(models.MsgSyncBackend, models.SourcePopup, nil)
	resp := f.coord.handleSync(context.Background(), msg)
	if resp.Success {
		t.Error("manual sync succeeded with no detection result")
	}
}

func TestToggleHighlightPersists(t *testing.T) {
	f := setup(t)
	before := f.coord.Settings().Highlight

	msg, _ := models.NewMessage(models.MsgToggleHighlight, models.SourcePopup, nil)
	resp := f.coord.handleToggleHighlight(context.Background(), msg)
	if !resp.Success {
		t.Fatalf("toggle failed: %s", resp.Error)
	}

	if f.coord.Settings().Highlight == before {
		t.Error("highlight setting did not flip")
	}

	persisted, err := f.store.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() failed: %v", err)
	}
	if persisted.Highlight == before {
		t.Error("flipped highlight setting not persisted")
	}
}

func TestToggleHighlightStoreErrorLeavesMemoryAlone(t *testing.T) {
	f := setup(t)
	before := f.coord.Settings().Highlight

	// A closed store makes the persist step fail.
	f.store.Close()

	msg, _ := models.NewMessage(models.MsgToggleHighlight, models.SourcePopup, nil)
	resp := f.coord.handleToggleHighlight(context.Background(), msg)
	if resp.Success {
		t.Fatal("toggle reported success despite store failure")
	}

	if f.coord.Settings().Highlight != before {
		t.Error("in-memory setting flipped while the store kept the old value")
	}
}

func TestGetStateSnapshot(t *testing.T) {
	f := setup(t)
	f.detect(t, detectionResult(artifact("a1", "def one(): pass")))
	f.download(t, models.DownloadRequest{ArtifactID: "a1"})

	msg, _ := models.NewMessage(models.MsgGetState, models.SourcePopup, nil)
	resp := f.coord.handleGetState(context.Background(), msg)
	if !resp.Success {
		t.Fatalf("get-state failed: %s", resp.Error)
	}

	var snapshot models.StateSnapshot
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}

	if len(snapshot.RecentArtifacts) != 1 {
		t.Errorf("snapshot recents = %d, want 1", len(snapshot.RecentArtifacts))
	}
	if p, ok := snapshot.DownloadProgress["a1"]; !ok || p.Status != models.StatusCompleted {
		t.Errorf("snapshot progress = %+v, want completed a1", snapshot.DownloadProgress)
	}
	if snapshot.Badge.ArtifactCount != 1 {
		t.Errorf("snapshot badge count = %d, want 1", snapshot.Badge.ArtifactCount)
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	f := setup(t)

	msg := models.Message{
		Type:      models.MsgDownloadArtifact,
		Payload:   json.RawMessage(`{"artifactId": 42}`),
		Timestamp: time.Now(),
		Source:    models.SourcePopup,
	}
	resp := f.coord.handleDownload(context.Background(), msg)
	if resp.Success {
		t.Error("malformed payload accepted")
	}
}
