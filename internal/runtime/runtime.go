// Package runtime assembles the engine for CLI commands: store, bus,
// coordinator, and health monitor wired together the same way for every
// command that needs a running background context.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/backend"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/bus"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/coordinator"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/downloads"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/health"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/store"
)

const backendTimeout = 10 * time.Second

// Logger builds the shared JSON logger. Quiet drops everything below
// error.
func Logger(quiet bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// Runtime is one assembled background context.
type Runtime struct {
	Logger      *slog.Logger
	Store       *store.Store
	Bus         *bus.Bus
	Coordinator *coordinator.Coordinator
	Monitor     *health.Monitor

	serveCancel context.CancelFunc
	serveDone   chan struct{}
}

// Build opens the store at dbPath, rehydrates the coordinator from it, and
// starts the bus dispatch loop and the backend health monitor.
func Build(ctx context.Context, logger *slog.Logger, dbPath string) (*Runtime, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	settings, err := st.LoadSettings()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	monitor := health.NewMonitor(logger, newClient(settings), health.DefaultInterval)

	coord := coordinator.New(coordinator.Config{
		Logger:   logger,
		Store:    st,
		Notifier: &coordinator.LogNotifier{Logger: logger},
		Monitor:  monitor,
		NewBackend: func(s models.Settings) coordinator.Backend {
			return newClient(s)
		},
		NewSubmitter: func(folder string) (coordinator.Submitter, error) {
			return downloads.NewSubmitter(folder)
		},
	})
	if err := coord.Init(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	b := bus.New(logger, 0)
	coord.Register(b)

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Serve(serveCtx)
	}()
	monitor.Start(serveCtx)

	return &Runtime{
		Logger:      logger,
		Store:       st,
		Bus:         b,
		Coordinator: coord,
		Monitor:     monitor,
		serveCancel: cancel,
		serveDone:   done,
	}, nil
}

// Close stops the dispatch loop and releases the store.
func (r *Runtime) Close() error {
	r.serveCancel()
	<-r.serveDone
	return r.Store.Close()
}

func newClient(settings models.Settings) *backend.Client {
	return backend.NewClient(settings.BackendURL, settings.APIKey, backendTimeout)
}
