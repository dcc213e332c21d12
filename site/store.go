package site

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the current configuration and reloads it when its file changes.
type Store struct {
	path     string
	log      *zap.SugaredLogger
	debounce time.Duration

	mu       sync.RWMutex
	cfg      Config
	onChange []func(Config)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithLogger(l *zap.SugaredLogger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDebounce sets how long the file must be quiet before a reload.
func WithDebounce(d time.Duration) StoreOption {
	return func(s *Store) { s.debounce = d }
}

// NewStore loads path, or uses Default when path is empty.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path:     path,
		log:      zap.NewNop().Sugar(),
		debounce: 200 * time.Millisecond,
		cfg:      Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		s.cfg = cfg
	}
	return s, nil
}

// Config returns the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// OnChange registers fn to run after each successful reload.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Reload re-reads the file. On error the previous configuration is kept.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	hooks := slices.Clone(s.onChange)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever its file is written, created or
// renamed into place, until ctx is done. It watches the parent directory so
// that editors replacing the file atomically are seen.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating site watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)
	s.log.Infow("watching site config", "path", target)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(s.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warnw("site watcher error", "error", err)
		case <-timer.C:
			if err := s.Reload(); err != nil {
				s.log.Warnw("site config reload failed; keeping previous", "error", err)
				continue
			}
			s.log.Infow("site config reloaded", "path", target)
		}
	}
}
