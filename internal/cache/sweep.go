package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
)

// StartEvictionSweep schedules a periodic background sweep on cron
// expression schedule (e.g. "@every 5m"), evicting least-recently-used
// cache entries until total size is back under the configured ceiling.
// Returns a stop function.
func (s *Store) StartEvictionSweep(schedule string, logger *logging.Logger) (stop func(), err error) {
	c := cron.New()
	_, err = c.AddFunc(schedule, func() {
		evicted := s.index.sweep()
		for _, key := range evicted {
			s.removeFiles(key)
		}
		if len(evicted) > 0 {
			logger.WithField("count", len(evicted)).Info("cache eviction sweep removed entries")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule cache eviction sweep: %w", err)
	}
	c.Start()
	return func() { c.Stop() }, nil
}

// removeFiles deletes the .bin/.meta pair for an index key of the form
// "<interface>/<hash>".
func (s *Store) removeFiles(key string) {
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 {
		return
	}
	dir := filepath.Join(s.root, parts[0])
	_ = os.Remove(filepath.Join(dir, parts[1]+".bin"))
	_ = os.Remove(filepath.Join(dir, parts[1]+".meta"))
}
