package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
)

// variantKey is the parquet key-value metadata entry holding the variant
const variantKey = "devaudience.variant"

// Codec converts a table to and from its parquet row type R
type Codec[T, R any] interface {
	ToRows(table []T) []R
	FromRows(rows []R) []T
}

// FetchFunc produces a table on a cache miss
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Source tells where a table came from
type Source string

const (
	SourceCache Source = "cache"
	SourceFetch Source = "fetch"
)

// LoadOrFetch returns the snapshot of key when it exists, is not expired and
// was written for the same variant; otherwise it calls fetch and writes the
// result. An unreadable snapshot is logged and treated as a miss. If the
// write fails, the fetched table is returned together with a cache_write
// error.
func LoadOrFetch[T, R any](ctx context.Context, m *Manager, key Key, variant string, codec Codec[T, R], fetch FetchFunc[T]) ([]T, Source, error) {
	if !m.disabled {
		table, ok := readFresh(m, key, variant, codec)
		if ok {
			return table, SourceCache, nil
		}
	}

	table, err := fetch(ctx)
	if err != nil {
		return nil, SourceFetch, err
	}
	if m.disabled {
		return table, SourceFetch, nil
	}

	if err := Write(m, key, variant, codec, table); err != nil {
		return table, SourceFetch, err
	}
	return table, SourceFetch, nil
}

// readFresh returns the cached table if it can be used
func readFresh[T, R any](m *Manager, key Key, variant string, codec Codec[T, R]) ([]T, bool) {
	st, err := m.Stat(key)
	if err != nil {
		m.logger.WithError(err).Warn("snapshot unavailable, fetching")
		return nil, false
	}
	if !st.Exists {
		logger.LogCache(m.logger, string(key), st.Path, "miss", 0)
		return nil, false
	}
	if st.Expired {
		logger.LogCache(m.logger, string(key), st.Path, "expired", 0)
		return nil, false
	}

	table, got, err := Read(m, key, codec)
	if err != nil {
		m.logger.WithError(err).WarnWithFields("snapshot unreadable, treating as miss", map[string]interface{}{
			"key":  string(key),
			"path": st.Path,
		})
		return nil, false
	}
	if got != variant {
		m.logger.InfoWithFields("snapshot variant differs, fetching", map[string]interface{}{
			"key":    string(key),
			"cached": got,
			"wanted": variant,
		})
		return nil, false
	}

	logger.LogCache(m.logger, string(key), st.Path, "hit", len(table))
	return table, true
}

// Read decodes the snapshot of key and returns it with its variant
func Read[T, R any](m *Manager, key Key, codec Codec[T, R]) ([]T, string, error) {
	path, err := m.Path(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", readError(key, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", readError(key, path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, "", readError(key, path, err)
	}
	variant, _ := pf.Lookup(variantKey)

	rows, err := parquet.Read[R](f, info.Size())
	if err != nil {
		return nil, "", readError(key, path, err)
	}
	return codec.FromRows(rows), variant, nil
}

// Write stores table as the snapshot of key. The file is written next to
// its final path, synced and renamed so readers never see a partial file.
func Write[T, R any](m *Manager, key Key, variant string, codec Codec[T, R], table []T) error {
	path, err := m.Path(key)
	if err != nil {
		return writeError(key, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return writeError(key, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return writeError(key, path, err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return writeError(key, path, err)
	}

	rows := codec.ToRows(table)
	w := parquet.NewGenericWriter[R](tmp, parquet.KeyValueMetadata(variantKey, variant))
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			return fail(fmt.Errorf("encode rows: %w", err))
		}
	}
	if err := w.Close(); err != nil {
		return fail(fmt.Errorf("finish parquet file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return writeError(key, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return writeError(key, path, err)
	}

	logger.LogCache(m.logger, string(key), path, "written", len(rows))
	return nil
}

func readError(key Key, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("snapshot does not exist: %w", err)
	}
	return &errs.Error{
		Type:    errs.ErrorTypeCacheRead,
		Message: fmt.Sprintf("%s snapshot %s", key, path),
		Err:     err,
	}
}

func writeError(key Key, path string, err error) error {
	return &errs.Error{
		Type:    errs.ErrorTypeCacheWrite,
		Message: fmt.Sprintf("%s snapshot %s", key, path),
		Err:     err,
	}
}
