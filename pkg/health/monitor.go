// Package health runs the recurring backend reachability probe that gates
// auto-sync.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober is the lightweight reachability check. backend.Client satisfies it.
type Prober interface {
	Health(ctx context.Context) error
}

// DefaultInterval is the fixed probe cadence.
const DefaultInterval = 30 * time.Second

// initialDelay schedules the first probe shortly after startup instead of
// waiting a full interval, so sync availability is known quickly.
const initialDelay = 2 * time.Second

// Monitor maintains a single boolean reachability flag updated by periodic
// probes and consulted by the auto-sync gate.
type Monitor struct {
	logger   *slog.Logger
	interval time.Duration

	mu        sync.RWMutex
	prober    Prober
	reachable bool

	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor; interval <= 0 uses DefaultInterval. The
// monitor starts pessimistic: unreachable until a probe succeeds.
func NewMonitor(logger *slog.Logger, prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		logger:   logger,
		interval: interval,
		prober:   prober,
	}
}

// Start launches the probe loop. Stopping happens via ctx or Restart.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parent = ctx
	m.startLocked()
}

func (m *Monitor) startLocked() {
	loopCtx, cancel := context.WithCancel(m.parent)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(loopCtx, m.done)
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	select {
	case <-time.After(initialDelay):
		m.probe(ctx)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	m.mu.RLock()
	p := m.prober
	m.mu.RUnlock()
	if p == nil {
		return
	}

	err := p.Health(ctx)

	m.mu.Lock()
	was := m.reachable
	m.reachable = err == nil
	m.mu.Unlock()

	if err != nil && was {
		m.logger.Warn("backend became unreachable", "error", err)
	} else if err == nil && !was {
		m.logger.Info("backend reachable")
	}
}

// Reachable reports the current probe verdict.
func (m *Monitor) Reachable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reachable
}

// SetReachable overrides the flag; the coordinator flips it down when a
// sync request fails between probe ticks.
func (m *Monitor) SetReachable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reachable = v
}

// Restart swaps the prober (after a backend address change) and restarts
// the loop from the new target. Reachability resets pessimistic until the
// next probe reports.
func (m *Monitor) Restart(prober Prober) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	old := m.done
	m.prober = prober
	m.reachable = false
	m.mu.Unlock()

	if old != nil {
		<-old
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parent == nil || m.parent.Err() != nil {
		return
	}
	m.startLocked()
}
