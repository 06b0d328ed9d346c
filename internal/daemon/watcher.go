package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/confpress/confpress/internal/logfields"
)

// ContentWatcher monitors the content and assets directories for changes
// and forwards change notices to the debouncer. Directories are watched
// recursively; newly created subdirectories are picked up on the fly.
type ContentWatcher struct {
	roots   []string
	watcher *fsnotify.Watcher
	changes chan<- ChangeNotice
	logger  *slog.Logger
}

// ChangeNotice is one observed filesystem change.
type ChangeNotice struct {
	Path string
	Op   string
}

// NewContentWatcher creates a watcher over the given root directories.
func NewContentWatcher(roots []string, changes chan<- ChangeNotice, logger *slog.Logger) (*ContentWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	cw := &ContentWatcher{watcher: w, changes: changes, logger: logger}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("resolve watch root %s: %w", root, err)
		}
		cw.roots = append(cw.roots, abs)
	}
	return cw, nil
}

// Start registers all watch roots and launches the event loop.
func (cw *ContentWatcher) Start(ctx context.Context) error {
	for _, root := range cw.roots {
		if err := cw.addRecursive(root); err != nil {
			return err
		}
		cw.logger.Info("watching for content changes", logfields.Path(root))
	}
	go cw.loop(ctx)
	return nil
}

// Stop closes the underlying watcher.
func (cw *ContentWatcher) Stop() error {
	return cw.watcher.Close()
}

func (cw *ContentWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if name := entry.Name(); name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if err := cw.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (cw *ContentWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if cw.ignore(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need their own watch.
				if err := cw.addRecursive(event.Name); err != nil {
					cw.logger.Debug("could not extend watch", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			select {
			case cw.changes <- ChangeNotice{Path: event.Name, Op: event.Op.String()}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("file watcher error", logfields.Error(err))
		}
	}
}

// ignore filters events that must never trigger a run: hidden files,
// editor temp files, and chmod-only noise.
func (cw *ContentWatcher) ignore(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	return false
}
