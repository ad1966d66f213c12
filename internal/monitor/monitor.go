// Package monitor ties the pipeline together: fetch the current spec,
// compare it against the stored snapshot, notify on change, rotate the
// snapshots, on a fixed interval or on demand.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specwatch/specwatch/internal/compare"
	"github.com/specwatch/specwatch/internal/notifier"
	"github.com/specwatch/specwatch/internal/source"
	"github.com/specwatch/specwatch/internal/store"
)

// Monitor runs the comparison pipeline against one specification source.
type Monitor struct {
	logger   *logrus.Logger
	fetcher  *source.Fetcher
	store    *store.Store
	backend  compare.Backend
	notifier *notifier.Notifier
	interval time.Duration

	// mu guarantees at most one comparison in flight for this monitor, so
	// two cycles can never race to rotate the stored snapshots.
	mu sync.Mutex
}

// New creates a new Monitor instance. The backend is fixed at construction;
// it is never switched between cycles.
func New(logger *logrus.Logger, fetcher *source.Fetcher, st *store.Store,
	backend compare.Backend, n *notifier.Notifier, interval time.Duration) *Monitor {
	return &Monitor{
		logger:   logger,
		fetcher:  fetcher,
		store:    st,
		backend:  backend,
		notifier: n,
		interval: interval,
	}
}

// CheckOnce performs one comparison cycle. The stored snapshot is promoted
// only after the notification was accepted, so a failed delivery retries
// with the same baseline on the next cycle.
func (m *Monitor) CheckOnce(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Checking for API specification changes...")

	current, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch current API specification: %w", err)
	}

	stored, err := m.store.Load(store.SlotCurrent)
	if err != nil {
		return err
	}

	result, err := m.backend.Compare(stored, current)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	if result == nil {
		m.logger.Info("No changes detected")
		return nil
	}

	if result.HasBreakingChanges {
		m.logger.Warnf("Breaking changes detected: %s", result.Summary)
	}

	if !m.notifier.Deliver(result) {
		m.logger.Warn("Failed to send notification, not updating stored specifications")
		return fmt.Errorf("notification delivery failed")
	}

	m.logger.Info("Notification sent successfully")
	return m.store.Promote(current)
}

// Run seeds the snapshot store if empty, then checks on the configured
// interval until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Starting API specification monitor")

	if err := m.seed(ctx); err != nil {
		m.logger.Errorf("Failed to store initial API specification: %v", err)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.logger.Infof("Scheduler started, checking every %s", m.interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("API specification monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.CheckOnce(ctx); err != nil {
				m.logger.Errorf("Check failed: %v", err)
			}
		}
	}
}

// seed stores the first fetched specification when no snapshot exists yet,
// without notifying: the initial version is a baseline, not a change.
func (m *Monitor) seed(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.store.Load(store.SlotCurrent)
	if err != nil {
		return err
	}
	if stored != nil {
		m.logger.Info("Using existing stored API specification")
		return nil
	}

	m.logger.Info("No stored API specification found, fetching initial version")
	current, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := m.store.Save(store.SlotCurrent, current); err != nil {
		return err
	}
	m.logger.Info("Initial API specification stored")
	return nil
}
