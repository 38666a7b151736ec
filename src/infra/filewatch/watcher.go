package filewatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observa arquivos e emite uma notificação por rajada de escritas.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    []string
	events   chan struct{}
	errors   chan error
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	watching bool
}

func NewWatcher(ctx context.Context, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	absolute := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		absolute = append(absolute, abs)
	}

	watcherCtx, cancel := context.WithCancel(ctx)

	return &Watcher{
		watcher: fsw,
		paths:   absolute,
		events:  make(chan struct{}, 1),
		errors:  make(chan error, 1),
		ctx:     watcherCtx,
		cancel:  cancel,
	}, nil
}

// Start observa o diretório de cada arquivo: editores salvam com rename, e o watch no arquivo se perde.
func (w *Watcher) Start(debounceInterval time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watching {
		return fmt.Errorf("watcher already started")
	}

	for _, path := range w.paths {
		dir := filepath.Dir(path)
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.watching = true
	go w.processEvents(debounceInterval)

	return nil
}

func (w *Watcher) processEvents(debounceInterval time.Duration) {
	defer close(w.events)
	defer close(w.errors)

	debounceTimer := time.NewTimer(debounceInterval)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.isWatchedFile(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounceTimer.Reset(debounceInterval)
			}

		case <-debounceTimer.C:
			select {
			case w.events <- struct{}{}:
			default:
				// já existe uma notificação pendente
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.ctx.Done():
				return
			}
		}
	}
}

func (w *Watcher) isWatchedFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, watchedPath := range w.paths {
		if abs == watchedPath {
			return true
		}
	}
	return false
}

// Events recebe uma notificação depois que as escritas param por debounceInterval.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.watching = false
	w.mu.Unlock()

	w.cancel()
	return w.watcher.Close()
}
