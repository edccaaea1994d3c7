package scanner

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// DebounceDelay is how long the scheduler waits after the last document
// change before rescanning. Repeated changes inside the window reset the
// timer so rapid DOM churn coalesces into one scan.
const DebounceDelay = 500 * time.Millisecond

// Loader produces the current document snapshot for a rescan.
type Loader func() (*goquery.Document, string, error)

// Watch drives the debounced rescan loop: every event on changes arms (or
// re-arms) a pending-rescan timer; when the timer fires, the document is
// reloaded, scanned, and the result handed to emit. At most one scan is
// scheduled or in flight at a time. An initial scan runs before watching.
//
// Scan or load failures are logged and the loop keeps watching; teardown is
// ctx cancellation, which stops scheduling but retracts nothing already
// emitted.
func (s *Scanner) Watch(ctx context.Context, changes <-chan struct{}, load Loader, emit func(models.DetectionResult)) error {
	scan := func() {
		doc, pageURL, err := load()
		if err != nil {
			s.logger.Error("failed to load document", "error", err)
			return
		}
		result, err := s.Scan(doc, pageURL)
		if err != nil {
			s.logger.Error("scan failed", "error", err)
			return
		}
		s.logger.Info("scan complete",
			"artifacts", len(result.Artifacts),
			"conversation", result.Conversation.ID)
		emit(result)
	}

	scan()

	timer := time.NewTimer(DebounceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			// Reset the pending-rescan timer.
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(DebounceDelay)
			pending = true
		case <-timer.C:
			pending = false
			scan()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
