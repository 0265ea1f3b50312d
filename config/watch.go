package config

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/taodd/ceph-ci/internal/log"
)

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }

// WatchCrushFile watches path for writes and invokes onChange with the
// new file's bytes each time, until ctx is done. It is meant for
// operators who manage a cluster's CRUSH map as a file on disk and
// expect edits to propagate without a separate admin-command push.
func WatchCrushFile(ctx context.Context, path string, onChange func([]byte)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				data, err := readFile(path)
				if err != nil {
					log.Warningf(ctx, "config: reread %s after change: %s", path, err)
					continue
				}
				onChange(data)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warningf(ctx, "config: watch %s: %s", path, err)
			}
		}
	}()

	return nil
}
