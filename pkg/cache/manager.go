package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"devaudience/pkg/config"
	"devaudience/pkg/logger"
)

// Key names a cached table
type Key string

const (
	KeyArticles  Key = "articles"
	KeyFollowers Key = "followers"
)

// Options configures a Manager
type Options struct {
	// TTL expires snapshots older than this; 0 trusts them indefinitely
	TTL time.Duration
	// Disabled turns every lookup into a miss and skips writes
	Disabled bool
	Logger   logger.Logger
}

// Manager owns the snapshot files
type Manager struct {
	paths    map[Key]string
	ttl      time.Duration
	disabled bool
	now      func() time.Time
	logger   logger.Logger
}

// NewManager creates a manager for the given key to path mapping
func NewManager(paths map[Key]string, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	copied := make(map[Key]string, len(paths))
	for k, v := range paths {
		copied[k] = v
	}

	return &Manager{
		paths:    copied,
		ttl:      opts.TTL,
		disabled: opts.Disabled,
		now:      time.Now,
		logger:   log.WithField("component", "cache"),
	}
}

// NewManagerFromConfig maps the articles and followers keys to the
// configured snapshot paths
func NewManagerFromConfig(cfg *config.Config, log logger.Logger) *Manager {
	return NewManager(map[Key]string{
		KeyArticles:  cfg.ArticlesSnapshotPath(),
		KeyFollowers: cfg.FollowersSnapshotPath(),
	}, Options{
		TTL:      cfg.Cache.TTL,
		Disabled: !cfg.Cache.Enabled,
		Logger:   log,
	})
}

// Path returns the snapshot path of key
func (m *Manager) Path(key Key) (string, error) {
	p, ok := m.paths[key]
	if !ok || p == "" {
		return "", fmt.Errorf("no snapshot path configured for %q", key)
	}
	return p, nil
}

// Keys returns the configured keys in a stable order
func (m *Manager) Keys() []Key {
	keys := make([]Key, 0, len(m.paths))
	for _, k := range []Key{KeyArticles, KeyFollowers} {
		if _, ok := m.paths[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Stat describes a snapshot on disk
type Stat struct {
	Key     Key
	Path    string
	Exists  bool
	ModTime time.Time
	Size    int64
	Expired bool
}

// Stat reports whether the snapshot of key exists and is still fresh
func (m *Manager) Stat(key Key) (Stat, error) {
	path, err := m.Path(key)
	if err != nil {
		return Stat{}, err
	}

	st := Stat{Key: key, Path: path}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("stat snapshot %s: %w", path, err)
	}

	st.Exists = true
	st.ModTime = info.ModTime()
	st.Size = info.Size()
	st.Expired = m.expired(info.ModTime())
	return st, nil
}

func (m *Manager) expired(modTime time.Time) bool {
	return m.ttl > 0 && m.now().Sub(modTime) > m.ttl
}

// Invalidate removes the snapshots of keys, or of every key when none are
// given. Missing files are not an error. It returns the removed paths.
func (m *Manager) Invalidate(keys ...Key) ([]string, error) {
	if len(keys) == 0 {
		keys = m.Keys()
	}

	var removed []string
	var errs []error
	for _, key := range keys {
		path, err := m.Path(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		err = os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
			logger.LogCache(m.logger, string(key), path, "invalidated", 0)
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, fmt.Errorf("remove snapshot %s: %w", path, err))
		}
	}
	return removed, errors.Join(errs...)
}
