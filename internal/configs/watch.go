package configs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

const watchDebounce = 250 * time.Millisecond

// Watch calls onChange (from its own goroutine) whenever something under one of the paths
// is written, created, removed or renamed. Bursts of changes are debounced into a single call.
// Files are watched through their parent directory so editors that replace files still trigger.
// Watching stops when ctx is cancelled.
func Watch(ctx context.Context, onChange func(path string), paths ...string) error {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, `fsnotify`)
	}

	watched := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return errors.Wrap(err, `filepath: `+p)
		}
		watched[abs] = struct{}{}

		if ext := filepath.Ext(abs); ext != `` {
			if err := watcher.Add(filepath.Dir(abs)); err != nil {
				watcher.Close()
				return errors.Wrap(err, `watch: `+abs)
			}
			continue
		}

		if err := addTree(watcher, abs); err != nil {
			watcher.Close()
			return err
		}
	}

	go func() {
		defer watcher.Close()

		var (
			lock    sync.Mutex
			pending = map[string]*time.Timer{}
		)

		for {
			select {
			case <-ctx.Done():
				lock.Lock()
				for _, t := range pending {
					t.Stop()
				}
				lock.Unlock()
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				root := matchWatched(watched, event.Name)
				if root == `` {
					continue
				}

				// New zone folders need their own watch
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addTree(watcher, event.Name); err != nil {
							mudlog.Warn("configs.Watch", "error", err)
						}
					}
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}

				lock.Lock()
				if t, ok := pending[root]; ok {
					t.Stop()
				}
				pending[root] = time.AfterFunc(watchDebounce, func() {
					lock.Lock()
					delete(pending, root)
					lock.Unlock()
					onChange(root)
				})
				lock.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				mudlog.Warn("configs.Watch", "error", err)
			}
		}
	}()

	return nil
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrap(err, `watch: `+path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return errors.Wrap(err, `watch: `+path)
		}
		return nil
	})
}

// matchWatched returns which watched path (file or directory) the event belongs to.
func matchWatched(watched map[string]struct{}, name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return ``
	}
	for p := range watched {
		if abs == p {
			return p
		}
		if rel, err := filepath.Rel(p, abs); err == nil && rel != `.` && !strings.HasPrefix(rel, `..`) {
			return p
		}
	}
	return ``
}
