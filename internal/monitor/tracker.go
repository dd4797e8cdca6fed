package monitor

import (
	"path/filepath"
	"sort"
)

// TrackedSession pairs a session file with the id it was assigned.
type TrackedSession struct {
	ID   uint32
	Path string
}

// SessionTracker assigns stable ids to discovered session files. Ids start at
// 1 and are never reused, even when a path disappears and comes back.
type SessionTracker struct {
	known  map[string]uint32
	nextID uint32
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		known:  make(map[string]uint32),
		nextID: 1,
	}
}

// Update reconciles the tracked set with the paths found by the latest scan.
// New sessions are returned in the order of paths; removed ids are ascending.
func (t *SessionTracker) Update(paths []string) (added []TrackedSession, removed []uint32) {
	current := make(map[string]bool, len(paths))
	for _, p := range paths {
		current[filepath.Clean(p)] = true
	}

	for path, id := range t.known {
		if !current[path] {
			removed = append(removed, id)
			delete(t.known, path)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	for _, p := range paths {
		path := filepath.Clean(p)
		if _, ok := t.known[path]; ok {
			continue
		}
		id := t.nextID
		t.nextID++
		t.known[path] = id
		added = append(added, TrackedSession{ID: id, Path: path})
	}
	return added, removed
}

// ID returns the id assigned to path, if it is currently tracked.
func (t *SessionTracker) ID(path string) (uint32, bool) {
	id, ok := t.known[filepath.Clean(path)]
	return id, ok
}

func (t *SessionTracker) Len() int { return len(t.known) }
