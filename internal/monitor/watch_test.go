package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func drained(dw *DirWatcher) bool {
	select {
	case <-dw.Wake():
		return true
	default:
		return false
	}
}

func TestDirWatcherHandle(t *testing.T) {
	root := t.TempDir()
	dw, err := NewDirWatcher(root, "jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer dw.Close()

	tests := []struct {
		name  string
		event fsnotify.Event
		wake  bool
	}{
		{"session created", fsnotify.Event{Name: filepath.Join(root, "a.jsonl"), Op: fsnotify.Create}, true},
		{"session removed", fsnotify.Event{Name: filepath.Join(root, "a.jsonl"), Op: fsnotify.Remove}, true},
		{"session renamed", fsnotify.Event{Name: filepath.Join(root, "a.jsonl"), Op: fsnotify.Rename}, true},
		{"session appended", fsnotify.Event{Name: filepath.Join(root, "a.jsonl"), Op: fsnotify.Write}, false},
		{"other file created", fsnotify.Event{Name: filepath.Join(root, "a.txt"), Op: fsnotify.Create}, false},
		{"chmod", fsnotify.Event{Name: filepath.Join(root, "a.jsonl"), Op: fsnotify.Chmod}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drained(dw)
			dw.handle(tt.event)
			if got := drained(dw); got != tt.wake {
				t.Errorf("wake = %v, want %v", got, tt.wake)
			}
		})
	}
}

func TestDirWatcherCoalesces(t *testing.T) {
	dw, err := NewDirWatcher(t.TempDir(), "jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer dw.Close()

	for i := 0; i < 5; i++ {
		dw.notify()
	}
	if !drained(dw) {
		t.Fatal("expected a pending wake")
	}
	if drained(dw) {
		t.Error("burst of notifications was not coalesced")
	}
}

func TestDirWatcherNewSubdirectory(t *testing.T) {
	root := t.TempDir()
	dw, err := NewDirWatcher(root, "jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer dw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dw.Run(ctx)

	sub := filepath.Join(root, "-home-user-proj")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	select {
	case <-dw.Wake():
	case <-time.After(5 * time.Second):
		t.Fatal("no wake after creating a project directory")
	}

	if err := os.WriteFile(filepath.Join(sub, "s.jsonl"), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-dw.Wake():
	case <-time.After(5 * time.Second):
		t.Fatal("no wake after creating a session in the new directory")
	}
}

func TestDirWatcherMissingRoot(t *testing.T) {
	parent := t.TempDir()
	dw, err := NewDirWatcher(filepath.Join(parent, "projects"), "jsonl")
	if err != nil {
		t.Fatalf("NewDirWatcher(missing) error: %v", err)
	}
	defer dw.Close()

	watched := dw.watcher.WatchList()
	if len(watched) != 1 || watched[0] != parent {
		t.Errorf("WatchList() = %v, want [%s]", watched, parent)
	}
}
