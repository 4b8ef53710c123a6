package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"genres/internal/extractor"

	"github.com/fsnotify/fsnotify"
)

type ChangeOp int

const (
	// ChangeUpdate means the file was created or written.
	ChangeUpdate ChangeOp = iota
	// ChangeRemove means the file was deleted or moved away.
	ChangeRemove
)

func (op ChangeOp) String() string {
	if op == ChangeRemove {
		return "remove"
	}
	return "update"
}

// Change is a supported file that changed on disk.
type Change struct {
	Path string
	Op   ChangeOp
}

// Watcher reports changes to supported files below a root directory.
type Watcher struct {
	c *Crawler
	w *fsnotify.Watcher
}

// NewWatcher registers root and every directory below it that is not ignored.
func (c *Crawler) NewWatcher(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	cw := &Watcher{c: c, w: w}
	if err := cw.addTree(root); err != nil {
		w.Close()
		return nil, err
	}
	return cw, nil
}

func (cw *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && cw.c.isIgnored(d.Name()) {
			return filepath.SkipDir
		}
		if err := cw.w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers changes to onChange until ctx is done or the watcher fails.
// New directories are watched as they appear.
func (cw *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-cw.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !cw.c.isIgnored(info.Name()) {
						if err := cw.addTree(ev.Name); err != nil {
							return err
						}
					}
					continue
				}
			}
			if !extractor.Supported(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				onChange(Change{Path: ev.Name, Op: ChangeRemove})
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				onChange(Change{Path: ev.Name, Op: ChangeUpdate})
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch failed: %w", err)
		}
	}
}

func (cw *Watcher) Close() error {
	return cw.w.Close()
}
