// Package cache implements the keyed, on-disk data cache (C5): freshness
// rules, singleflight-collapsed misses, atomic writes, and a background
// LRU eviction sweep bounded by a configurable size ceiling.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

// meta is the sibling JSON file recording an entry's storage time and the
// canonical params it was computed from (§6 on-disk layout).
type meta struct {
	StoredAt time.Time         `json:"stored_at"`
	Params   map[string]string `json:"params"`
}

// Fetcher performs the upstream call backing a cache miss.
type Fetcher func(ctx context.Context, interfaceName string, params map[string]string) (model.Table, error)

// Store is the disk-backed cache. get_or_compute is its only entry point.
type Store struct {
	root            string
	serveStaleOnErr bool
	logger          *logging.Logger

	group singleflight.Group

	mu    sync.Mutex
	index *lruIndex
}

// Config controls Store behavior.
type Config struct {
	Root            string
	CeilingBytes    int64
	ServeStaleOnErr bool
}

// NewStore builds a Store rooted at cfg.Root, rebuilding its LRU index by
// walking the existing cache directory (so a restarted process resumes
// with accurate entry sizes; recency order after a restart is the
// directory-walk order, not the last-read order before the restart).
func NewStore(cfg Config, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, errors.Internal("failed to create cache root", err)
	}
	idx, err := newLRUIndex(cfg.Root, cfg.CeilingBytes)
	if err != nil {
		return nil, err
	}
	return &Store{
		root:            cfg.Root,
		serveStaleOnErr: cfg.ServeStaleOnErr,
		logger:          logger,
		index:           idx,
	}, nil
}

// GetOrCompute is C5's only entry point (§4.5). Concurrent calls for the
// same (interfaceName, params) collapse to a single fetch invocation.
func (s *Store) GetOrCompute(ctx context.Context, interfaceName string, params map[string]string, fetch Fetcher) (model.Table, error) {
	hash := keyHash(interfaceName, params)
	sfKey := interfaceName + "/" + hash

	binPath, metaPath := s.paths(interfaceName, hash)

	s.index.markInFlight(sfKey)
	defer s.index.unmarkInFlight(sfKey)

	if table, m, ok := s.readEntry(binPath, metaPath); ok {
		s.index.touch(sfKey, fileSize(binPath))
		if isFresh(params, m.StoredAt, time.Now()) {
			return table, nil
		}
	}

	result, err, _ := s.group.Do(sfKey, func() (interface{}, error) {
		table, ferr := fetch(ctx, interfaceName, params)
		if ferr != nil {
			return nil, ferr
		}
		if werr := s.write(interfaceName, hash, params, table); werr != nil {
			s.logger.WithContext(ctx).WithError(werr).Warn("cache write failed, serving freshly computed payload")
		} else {
			s.index.touch(sfKey, fileSize(binPath))
		}
		return table, nil
	})

	if err != nil {
		if s.serveStaleOnErr {
			if table, _, ok := s.readEntry(binPath, metaPath); ok {
				s.logger.WithContext(ctx).WithField("interface", interfaceName).Warn("serving stale cache entry after upstream failure")
				return table, nil
			}
		}
		return model.Table{}, err
	}

	return result.(model.Table), nil
}

// Invalidate removes a specific cache entry (used by cmd/cacheadm).
func (s *Store) Invalidate(interfaceName string, params map[string]string) error {
	hash := keyHash(interfaceName, params)
	binPath, metaPath := s.paths(interfaceName, hash)
	_ = os.Remove(binPath)
	_ = os.Remove(metaPath)
	s.index.remove(interfaceName + "/" + hash)
	return nil
}

// InvalidateInterface removes every cache entry for interfaceName.
func (s *Store) InvalidateInterface(interfaceName string) error {
	dir := filepath.Join(s.root, interfaceName)
	if err := os.RemoveAll(dir); err != nil {
		return errors.CacheIOError("failed to invalidate interface cache", err)
	}
	s.index.removePrefix(interfaceName + "/")
	return nil
}

func (s *Store) paths(interfaceName, hash string) (bin, metaPath string) {
	dir := filepath.Join(s.root, interfaceName)
	return filepath.Join(dir, hash+".bin"), filepath.Join(dir, hash+".meta")
}

func (s *Store) readEntry(binPath, metaPath string) (model.Table, meta, bool) {
	binBytes, err := os.ReadFile(binPath)
	if err != nil {
		return model.Table{}, meta{}, false
	}
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return model.Table{}, meta{}, false
	}

	var table model.Table
	if err := json.Unmarshal(binBytes, &table); err != nil {
		return model.Table{}, meta{}, false
	}
	var m meta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return model.Table{}, meta{}, false
	}
	return table, m, true
}

func (s *Store) write(interfaceName, hash string, params map[string]string, table model.Table) error {
	dir := filepath.Join(s.root, interfaceName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.CacheIOError("failed to create interface cache directory", err)
	}

	binPath := filepath.Join(dir, hash+".bin")
	metaPath := filepath.Join(dir, hash+".meta")

	payload, err := json.Marshal(table)
	if err != nil {
		return errors.CacheIOError("failed to encode cache payload", err)
	}
	m := meta{StoredAt: time.Now(), Params: params}
	metaPayload, err := json.Marshal(m)
	if err != nil {
		return errors.CacheIOError("failed to encode cache metadata", err)
	}

	if err := atomicWrite(binPath, payload); err != nil {
		return err
	}
	if err := atomicWrite(metaPath, metaPayload); err != nil {
		return err
	}
	return nil
}

// atomicWrite writes data to a sibling temp file and renames it into
// place, so readers never observe a torn file.
func atomicWrite(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp-%d", path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.CacheIOError("failed to write temp cache file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.CacheIOError("failed to finalize cache file", err)
	}
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
