package sync

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 200 * time.Millisecond

// EventCallback is called after a watcher-driven conversion.
// err is nil when the target file was written.
type EventCallback func(source, dest string, err error)

// Watch converts source files under root whenever they are created or
// written, until ctx is cancelled. Bursts of events for the same file are
// coalesced: a file is converted once its writes have been quiet for the
// debounce interval. New directories are added to the watch list.
func (s *Syncer) Watch(ctx context.Context, root string, debounce time.Duration, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	s.log.WatchStarted(root, debounce)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(path string) {
		pending[path] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	flush := func() {
		paths := make([]string, 0, len(pending))
		for path := range pending {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		clear(pending)

		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			dest, err := s.ConvertFile(path)
			if err != nil {
				s.log.ConversionFailed(path, err)
			}
			if cb != nil {
				cb(path, dest, err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.log.Info("watcher stopped", "root", root)
			return nil

		case <-timerCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						s.log.Warn("failed to watch new directory", "path", ev.Name, "error", addErr)
						continue
					}
					files, _ := ScanDirectory(ev.Name, s.direction.SourceExt())
					for _, file := range files {
						schedule(file)
					}
					continue
				}
			}

			if filepath.Ext(ev.Name) != s.direction.SourceExt() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule(ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Error("watcher error", "error", watchErr)
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
