package templatefile

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/menta2k/pose-template/pkg/types"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads a template file whenever it changes on disk. Only the most
// recent reload is kept when the consumer falls behind.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan types.KeypointStructure
	errs    chan error
	done    chan struct{}

	mu        sync.Mutex
	debounce  *time.Timer
	closeOnce sync.Once
}

// Watch starts watching path. The directory is watched rather than the file
// so that atomic replacements are seen.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		changes: make(chan types.KeypointStructure, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers the reloaded template after each change
func (w *Watcher) Changes() <-chan types.KeypointStructure {
	return w.changes
}

// Errors delivers watch and reload errors
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			if w.debounce != nil {
				w.debounce.Stop()
			}
			w.debounce = time.AfterFunc(debounceDelay, w.reload)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		}
	}
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	structure, err := Load(w.path)
	if err != nil {
		w.sendErr(fmt.Errorf("reload template: %w", err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.changes:
	default:
	}
	w.changes <- structure
}

func (w *Watcher) sendErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
