// Package settings implements the settings commands: show, set, reset,
// and YAML export/import of the persisted configuration document.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/runtime"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/store"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func ShowAction(c *cli.Context) error {
	st, err := store.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	settings, err := st.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// SetAction applies key=value pairs through the full update path, so the
// same validation runs as for any other settings change.
func SetAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no changes given\nUsage: artifactor settings set <key>=<value> ...\nExample: artifactor settings set auto_sync=true naming_mode=timestamp")
	}

	logger := runtime.Logger(true)
	rt, err := runtime.Build(c.Context, logger, c.String("db"))
	if err != nil {
		return err
	}
	defer rt.Close()

	settings := rt.Coordinator.Settings()
	for _, arg := range c.Args().Slice() {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("expected key=value, got %q", arg)
		}
		if err := apply(&settings, key, value); err != nil {
			return err
		}
	}

	if err := update(c, rt, settings); err != nil {
		return err
	}

	fmt.Println("Settings updated")
	return nil
}

func ResetAction(c *cli.Context) error {
	st, err := store.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	settings, err := st.ResetSettings()
	if err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}

	fmt.Printf("Settings restored to defaults (backend %s, naming %s)\n",
		settings.BackendURL, settings.NamingMode)
	return nil
}

func ExportAction(c *cli.Context) error {
	st, err := store.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	settings, err := st.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	path := c.String("out")
	if path == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	fmt.Printf("Settings exported to %s\n", path)
	return nil
}

// ImportAction replaces the settings document from a YAML file, again
// through the validated update path.
func ImportAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no file given\nUsage: artifactor settings import <file.yaml>")
	}

	data, err := os.ReadFile(filepath.Clean(c.Args().First()))
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := models.DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	logger := runtime.Logger(true)
	rt, err := runtime.Build(c.Context, logger, c.String("db"))
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := update(c, rt, settings); err != nil {
		return err
	}

	fmt.Println("Settings imported")
	return nil
}

func update(c *cli.Context, rt *runtime.Runtime, settings models.Settings) error {
	msg, err := models.NewMessage(models.MsgUpdateSettings, models.SourceOptions, settings)
	if err != nil {
		return err
	}
	resp, err := rt.Bus.Send(c.Context, msg)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("settings rejected: %s", resp.Error)
	}
	return nil
}

func apply(s *models.Settings, key, value string) error {
	switch key {
	case "backend_url":
		s.BackendURL = value
	case "api_key":
		s.APIKey = value
	case "download_folder":
		s.DownloadFolder = value
	case "naming_mode":
		s.NamingMode = models.NamingMode(value)
	case "auto_sync", "auto_download", "detection", "highlight", "notifications":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		switch key {
		case "auto_sync":
			s.AutoSync = b
		case "auto_download":
			s.AutoDownload = b
		case "detection":
			s.Detection = b
		case "highlight":
			s.Highlight = b
		case "notifications":
			s.Notifications = b
		}
	default:
		return fmt.Errorf("unknown setting %q (known: backend_url, api_key, download_folder, naming_mode, auto_sync, auto_download, detection, highlight, notifications)", key)
	}
	return nil
}
