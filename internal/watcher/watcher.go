// Package watcher syncs a dump file into the store whenever it changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of writes to the dump file
const DefaultDebounce = 100 * time.Millisecond

// Config holds watcher configuration
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig returns a Config for path with the default debounce
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: DefaultDebounce}
}

// SyncFunc is called after the watched file settles
type SyncFunc func(ctx context.Context) error

// Watcher watches the directory holding the dump file, since atomic saves
// replace the file rather than write to it.
type Watcher struct {
	cfg    Config
	target string
	fsw    *fsnotify.Watcher
	sync   SyncFunc
	log    *zerolog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// New creates a watcher; call Start to begin watching
func New(cfg Config, fn SyncFunc, log *zerolog.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("watch path is required")
	}
	if fn == nil {
		return nil, errors.New("sync function is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	target, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:    cfg,
		target: target,
		fsw:    fsw,
		sync:   fn,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start begins watching. It fails if the parent directory does not exist.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return errors.New("watcher already started")
	}

	dir := filepath.Dir(w.target)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.started = true

	w.wg.Add(1)
	go w.loop()

	w.log.Debug().Str("path", w.target).Dur("debounce", w.cfg.Debounce).Msg("watching dump file")
	return nil
}

// Stop ends watching and waits for a running sync to return.
// It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.cancel()
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// Run starts the watcher and blocks until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	name, err := filepath.Abs(evt.Name)
	if err != nil || name != w.target {
		return false
	}
	return evt.Op.Has(fsnotify.Write) || evt.Op.Has(fsnotify.Create) || evt.Op.Has(fsnotify.Rename)
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(evt) {
				continue
			}
			w.log.Trace().Str("op", evt.Op.String()).Msg("dump file event")
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			if err := w.sync(w.ctx); err != nil {
				if w.ctx.Err() != nil {
					return
				}
				w.log.Warn().Err(err).Str("path", w.target).Msg("sync after change failed")
			}
		}
	}
}
