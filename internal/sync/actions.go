// Package sync implements the manual backend sync command: scan one page
// snapshot and push the detection result to the configured backend
// regardless of the auto-sync setting.
package sync

import (
	"encoding/json"
	"fmt"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/runtime"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/scanner"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/source"
	"github.com/urfave/cli/v2"
)

func SyncAction(c *cli.Context) error {
	logger := runtime.Logger(c.Bool("quiet"))

	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("no page to sync: pass a file path or URL as the first argument")
	}

	rt, err := runtime.Build(c.Context, logger, c.String("db"))
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, pageURL, err := source.New(nil).Load(ref)
	if err != nil {
		return err
	}

	settings := rt.Coordinator.Settings()
	sc := scanner.New(logger, c.String("host"), settings.Highlight && settings.Detection)

	detection, err := sc.Scan(doc, pageURL)
	if err != nil {
		return err
	}
	if err := sc.Emit(c.Context, rt.Bus, detection); err != nil {
		return err
	}

	msg, err := models.NewMessage(models.MsgSyncBackend, models.SourcePopup, nil)
	if err != nil {
		return err
	}
	resp, err := rt.Bus.Send(c.Context, msg)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("sync failed: %s", resp.Error)
	}

	var counts map[string]int
	if err := json.Unmarshal(resp.Data, &counts); err == nil {
		fmt.Printf("Synced %d artifacts to %s\n", counts["synced"], settings.BackendURL)
	} else {
		fmt.Printf("Synced detection result to %s\n", settings.BackendURL)
	}
	return nil
}
