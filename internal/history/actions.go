// Package history implements the read-only commands over the store: the
// bounded recent-artifacts log and the download history.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/store"
	"github.com/urfave/cli/v2"
)

func RecentsAction(c *cli.Context) error {
	st, err := store.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	artifacts, err := st.RecentArtifacts(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list recent artifacts: %w", err)
	}

	if len(artifacts) == 0 {
		fmt.Println("No artifacts detected yet")
		return nil
	}

	fmt.Printf("%-38s %-30s %-12s %-10s %-8s %-18s\n",
		"ID", "Title", "Kind", "Language", "Size", "Checksum")
	fmt.Println(strings.Repeat("-", 120))

	for _, a := range artifacts {
		fmt.Printf("%-38s %-30s %-12s %-10s %-8d %-18s\n",
			a.ID,
			truncate(a.Title, 30),
			string(a.Kind),
			a.Language,
			a.Size,
			a.Checksum,
		)
	}

	fmt.Printf("\nTotal: %d artifacts (log keeps the %d most recent)\n", len(artifacts), store.RecentArtifactsCap)
	return nil
}

func DownloadsAction(c *cli.Context) error {
	st, err := store.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	entries, err := st.DownloadHistory(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list download history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No downloads recorded yet")
		return nil
	}

	failedOnly := c.Bool("failed")

	fmt.Printf("%-20s %-10s %-30s %-30s %-12s\n",
		"When", "Status", "Title", "Filename", "Kind")
	fmt.Println(strings.Repeat("-", 110))

	shown := 0
	for _, e := range entries {
		if failedOnly && e.Error == "" {
			continue
		}
		shown++
		fmt.Printf("%-20s %-10s %-30s %-30s %-12s\n",
			time.UnixMilli(e.At).Format("2006-01-02 15:04:05"),
			string(e.Status),
			truncate(e.Title, 30),
			truncate(e.Filename, 30),
			string(e.Kind),
		)
		if e.Error != "" {
			fmt.Printf("    Error: %s\n", e.Error)
		}
	}

	if failedOnly && shown == 0 {
		fmt.Println("No failed downloads")
		return nil
	}

	fmt.Printf("\nTotal: %d downloads (log keeps the %d most recent)\n", shown, store.DownloadHistoryCap)
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
