package monitor

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher reports session files appearing or disappearing under the
// projects directory so discovery can run before the next scheduled scan.
// Appends to existing files are left to the poll loop.
type DirWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	suffix  string
	wake    chan struct{}
}

// NewDirWatcher watches root and every directory below it. A root that does
// not exist yet is not an error; it is picked up through its parent when
// created.
func NewDirWatcher(root, ext string) (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dw := &DirWatcher{
		watcher: w,
		root:    filepath.Clean(root),
		suffix:  "." + strings.TrimPrefix(ext, "."),
		wake:    make(chan struct{}, 1),
	}
	dw.addTree(dw.root)
	if len(w.WatchList()) == 0 {
		// Fall back to the parent so creation of root itself is noticed.
		if err := w.Add(filepath.Dir(dw.root)); err != nil {
			log.Printf("[watch] Cannot watch %s: %v", filepath.Dir(dw.root), err)
		}
	}
	return dw, nil
}

// Wake delivers at most one pending notification; bursts are coalesced.
func (dw *DirWatcher) Wake() <-chan struct{} {
	return dw.wake
}

// Run forwards filesystem events until ctx is done or the watcher is closed.
func (dw *DirWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handle(event)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watch] Error: %v", err)
		}
	}
}

func (dw *DirWatcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) && dw.within(path) && dw.addTree(path) > 0 {
		dw.notify()
		return
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if strings.HasSuffix(path, dw.suffix) {
		dw.notify()
	}
}

// within reports whether path is root or below it.
func (dw *DirWatcher) within(path string) bool {
	rel, err := filepath.Rel(dw.root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// addTree watches dir and its subdirectories, returning how many were added.
// Non-directories are ignored.
func (dw *DirWatcher) addTree(dir string) int {
	added := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := dw.watcher.Add(path); err != nil {
			log.Printf("[watch] Cannot watch %s: %v", path, err)
			return nil
		}
		added++
		return nil
	})
	return added
}

func (dw *DirWatcher) notify() {
	select {
	case dw.wake <- struct{}{}:
	default:
	}
}

func (dw *DirWatcher) Close() error {
	return dw.watcher.Close()
}
