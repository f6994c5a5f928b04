package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// entryInfo tracks one cache entry's size for eviction accounting.
type entryInfo struct {
	size int64
}

// lruIndex is the in-memory access-order index driving eviction: evictable
// keys live in an LRU list keyed by "<interface>/<hash>", while keys
// currently being read or computed are tracked in inFlight and skipped by
// the sweep (§5 "must never evict an entry currently being read").
type lruIndex struct {
	root     string
	ceiling  int64
	mu       sync.Mutex
	lru      *lru.LRU[string, entryInfo]
	total    int64
	inFlight map[string]int
}

func newLRUIndex(root string, ceiling int64) (*lruIndex, error) {
	idx := &lruIndex{root: root, ceiling: ceiling, inFlight: make(map[string]int)}
	// Unbounded: eviction decisions are driven by total byte size, not
	// list length, so the underlying LRU never evicts on its own — the
	// sweep walks it explicitly via keys().
	underlying, err := lru.NewLRU[string, entryInfo](1<<31-1, nil)
	if err != nil {
		return nil, errors.Internal("failed to build cache LRU index", err)
	}
	idx.lru = underlying

	if err := idx.rebuild(); err != nil {
		return nil, err
	}
	return idx, nil
}

// rebuild walks the cache directory at startup so a restarted process
// resumes with accurate entry sizes. Entries are added in walk order, so
// that order (not pre-restart read recency) seeds the LRU list.
func (idx *lruIndex) rebuild() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return filepath.WalkDir(idx.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".bin") {
			return nil
		}
		info, serr := d.Info()
		if serr != nil {
			return nil
		}
		rel, rerr := filepath.Rel(idx.root, path)
		if rerr != nil {
			return nil
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), ".bin")
		idx.lru.Add(key, entryInfo{size: info.Size()})
		idx.total += info.Size()
		return nil
	})
}

// touch records that key now occupies size bytes and was just accessed,
// moving it to the most-recently-used position.
func (idx *lruIndex) touch(key string, size int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.lru.Peek(key); ok {
		idx.total -= old.size
	}
	idx.lru.Add(key, entryInfo{size: size})
	idx.total += size
}

func (idx *lruIndex) remove(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if old, ok := idx.lru.Peek(key); ok {
		idx.total -= old.size
		idx.lru.Remove(key)
	}
}

func (idx *lruIndex) removePrefix(prefix string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, key := range idx.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			if old, ok := idx.lru.Peek(key); ok {
				idx.total -= old.size
			}
			idx.lru.Remove(key)
		}
	}
}

func (idx *lruIndex) markInFlight(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.inFlight[key]++
}

func (idx *lruIndex) unmarkInFlight(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.inFlight[key]--
	if idx.inFlight[key] <= 0 {
		delete(idx.inFlight, key)
	}
}

// sweep evicts least-recently-used entries (skipping any key currently
// in flight) until total size is back under the ceiling.
func (idx *lruIndex) sweep() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.ceiling <= 0 || idx.total <= idx.ceiling {
		return nil
	}

	var evicted []string
	for _, key := range idx.lru.Keys() {
		if idx.total <= idx.ceiling {
			break
		}
		if idx.inFlight[key] > 0 {
			continue
		}
		info, ok := idx.lru.Peek(key)
		if !ok {
			continue
		}
		idx.lru.Remove(key)
		idx.total -= info.size
		evicted = append(evicted, key)
	}
	return evicted
}
