package monitor

import (
	"context"
	"log"
	"time"

	"github.com/pixel-agents/pixel-agents/internal/config"
	"github.com/pixel-agents/pixel-agents/internal/session"
)

// TickReport summarizes what one tick changed. All id slices are ascending
// except Added, which follows discovery order.
type TickReport struct {
	Scanned bool
	Added   []TrackedSession
	Removed []uint32
	// Updated lists agents that received at least one event.
	Updated []uint32
	// Rewound lists agents whose file shrank and was re-read from the start.
	Rewound []uint32
	Dormant []uint32
}

// Changed reports whether anything visible to a renderer happened.
func (r TickReport) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Updated) > 0 || len(r.Dormant) > 0
}

// Monitor drives discovery, incremental reads and the staleness sweep. It is
// not safe for concurrent use: Tick, RequestScan and reads of Store must all
// happen on the goroutine that owns the Monitor.
type Monitor struct {
	cfg     *config.Config
	store   *session.Store
	tracker *SessionTracker
	reader  *IncrementalReader
	tracked map[uint32]string // id -> session file

	ticks       uint64
	scanPending bool
	now         func() time.Time
}

func NewMonitor(cfg *config.Config, store *session.Store) *Monitor {
	return &Monitor{
		cfg:         cfg,
		store:       store,
		tracker:     NewSessionTracker(),
		reader:      NewIncrementalReader(),
		tracked:     make(map[uint32]string),
		scanPending: true,
		now:         time.Now,
	}
}

// SetClock replaces the time source. Tests use it to step time manually.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// Store exposes the agent collection. Callers must treat it as read-only.
func (m *Monitor) Store() *session.Store {
	return m.store
}

// RequestScan makes the next tick run discovery regardless of the scan
// interval.
func (m *Monitor) RequestScan() {
	m.scanPending = true
}

// Tick runs one poll cycle: discovery when due, one incremental read per
// tracked session, then the staleness sweep.
func (m *Monitor) Tick() TickReport {
	now := m.now()
	m.ticks++

	var report TickReport
	if m.scanPending || m.ticks%uint64(m.cfg.Monitor.ScanInterval) == 0 {
		m.scanPending = false
		m.scan(now, &report)
	}

	for _, id := range m.store.SortedIDs() {
		path, ok := m.tracked[id]
		if !ok {
			continue
		}
		records, rewound := m.reader.read(path)
		if rewound {
			log.Printf("[monitor] Session %d truncated, re-reading %s", id, path)
			report.Rewound = append(report.Rewound, id)
		}

		var events []session.Event
		for _, rec := range records {
			events = append(events, Events(rec)...)
		}
		if len(events) == 0 {
			continue
		}
		m.store.Apply(id, events, now)
		report.Updated = append(report.Updated, id)
	}

	report.Dormant = m.store.SweepDormant(now, m.cfg.Monitor.DormancyTimeout)
	for _, id := range report.Dormant {
		log.Printf("[monitor] Session %d dormant", id)
	}
	return report
}

func (m *Monitor) scan(now time.Time, report *TickReport) {
	paths := ScanSessions(m.cfg.ProjectsDir(), m.cfg.LogExt, m.cfg.Monitor.SessionWindow, now)
	added, removed := m.tracker.Update(paths)
	report.Scanned = true
	report.Added = added
	report.Removed = removed

	for _, id := range removed {
		path, ok := m.tracked[id]
		if !ok {
			continue
		}
		m.store.Remove(id)
		m.reader.Remove(path)
		delete(m.tracked, id)
		log.Printf("[monitor] Session %d removed: %s", id, path)
	}

	for _, ts := range added {
		m.tracked[ts.ID] = ts.Path
		m.store.Add(ts.ID, ts.Path, now)
		log.Printf("[monitor] Tracking new session %d: %s", ts.ID, ts.Path)
	}
}

// Start ticks at the configured rate until ctx is done. A receive on wake
// requests an early discovery pass; wake may be nil. report, if non-nil, is
// called after every tick.
func (m *Monitor) Start(ctx context.Context, wake <-chan struct{}, report func(TickReport)) {
	ticker := time.NewTicker(m.cfg.Monitor.TickRate)
	defer ticker.Stop()

	log.Printf("[monitor] Started (projects=%s, tick=%s, scan every %d ticks)",
		m.cfg.ProjectsDir(), m.cfg.Monitor.TickRate, m.cfg.Monitor.ScanInterval)

	tick := func() {
		r := m.Tick()
		if report != nil {
			report(r)
		}
	}
	tick()

	for {
		select {
		case <-ctx.Done():
			log.Println("[monitor] Stopped")
			return
		case _, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			m.RequestScan()
		case <-ticker.C:
			tick()
		}
	}
}
