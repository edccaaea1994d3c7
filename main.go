package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/history"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/runtime"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/scan"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/settings"
	syncaction "github.com/SWORDIntel/ARTIFACTOR-sub003/internal/sync"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/watch"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "artifactor",
		Usage: "detect, classify, and download artifacts from conversation page snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to the state database (default: next to the binary)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "scan page snapshots (files or URLs) for artifacts",
				ArgsUsage: "[ref ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pages",
						Usage: "comma-separated list of files or URLs to scan",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "only scan pages whose URL matches this host",
					},
					&cli.IntFlag{
						Name:  "workers",
						Value: 4,
						Usage: "number of concurrent scan workers",
					},
					&cli.BoolFlag{
						Name:  "download",
						Usage: "download every detected artifact after scanning",
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "cache fetched snapshots in this directory",
					},
					&cli.StringFlag{
						Name:  "max-age",
						Value: "24h",
						Usage: "maximum age of cached snapshots",
					},
				},
				Action: scan.ScanAction,
			},
			{
				Name:      "watch",
				Usage:     "watch a snapshot file and rescan on change",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "only scan pages whose URL matches this host",
					},
				},
				Action: watch.WatchAction,
			},
			{
				Name:  "history",
				Usage: "inspect the bounded detection and download logs",
				Subcommands: []*cli.Command{
					{
						Name:  "recents",
						Usage: "list recently detected artifacts",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "maximum entries to show (0 = all kept)",
							},
						},
						Action: history.RecentsAction,
					},
					{
						Name:  "downloads",
						Usage: "list the download history",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "maximum entries to show (0 = all kept)",
							},
							&cli.BoolFlag{
								Name:  "failed",
								Usage: "only show failed downloads",
							},
						},
						Action: history.DownloadsAction,
					},
				},
			},
			{
				Name:  "settings",
				Usage: "show or change the persisted configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "print current settings as YAML",
						Action: settings.ShowAction,
					},
					{
						Name:      "set",
						Usage:     "change settings (key=value pairs)",
						ArgsUsage: "<key>=<value> ...",
						Action:    settings.SetAction,
					},
					{
						Name:   "reset",
						Usage:  "restore default settings",
						Action: settings.ResetAction,
					},
					{
						Name:  "export",
						Usage: "export settings as YAML",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "out",
								Usage: "write to this file instead of stdout",
							},
						},
						Action: settings.ExportAction,
					},
					{
						Name:      "import",
						Usage:     "import settings from a YAML file",
						ArgsUsage: "<file.yaml>",
						Action:    settings.ImportAction,
					},
				},
			},
			{
				Name:      "sync",
				Usage:     "scan one page and push the result to the backend",
				ArgsUsage: "<ref>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "only scan pages whose URL matches this host",
					},
				},
				Action: syncaction.SyncAction,
			},
			{
				Name:   "state",
				Usage:  "print the coordinator state snapshot",
				Action: stateAction,
			},
			{
				Name:  "quickstart",
				Usage: "print a quickstart reference",
				Action: func(*cli.Context) error {
					fmt.Print(help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func stateAction(c *cli.Context) error {
	logger := runtime.Logger(true)
	rt, err := runtime.Build(c.Context, logger, c.String("db"))
	if err != nil {
		return err
	}
	defer rt.Close()

	msg, err := models.NewMessage(models.MsgGetState, models.SourcePopup, nil)
	if err != nil {
		return err
	}
	resp, err := rt.Bus.Send(c.Context, msg)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("get-state failed: %s", resp.Error)
	}

	var snapshot models.StateSnapshot
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		return fmt.Errorf("failed to decode state snapshot: %w", err)
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
