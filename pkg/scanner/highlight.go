package scanner

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
)

// Decoration markers applied to detected elements. Re-scans refresh them in
// place, so repeated scans never stack duplicate badges.
const (
	highlightClass   = "artifactor-detected"
	badgeAttr        = "data-artifactor-badge"
	downloadAttr     = "data-artifactor-download"
	fingerprintAttr  = "data-artifactor-checksum"
)

// decorate applies or refreshes the visual highlight on each detected
// element: the highlight class, a kind badge, and a per-artifact download
// affordance keyed by artifact id. selections[i] is the element that
// produced artifacts[i].
func (s *Scanner) decorate(selections []*goquery.Selection, artifacts []models.Artifact) {
	for i, sel := range selections {
		a := artifacts[i]

		sel.AddClass(highlightClass)
		sel.SetAttr(badgeAttr, fmt.Sprintf("%s · %s", a.Kind, humanSize(a.Size)))
		sel.SetAttr(downloadAttr, a.ID)
		sel.SetAttr(fingerprintAttr, a.Checksum)
	}
}

// humanSize renders a byte count for the badge.
func humanSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	return fmt.Sprintf("%.1fKB", float64(n)/1024)
}
