package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := logging.New("test", "error", "json")
	store, err := NewStore(Config{Root: t.TempDir(), CeilingBytes: 1 << 20, ServeStaleOnErr: true}, logger)
	require.NoError(t, err)
	return store
}

func tableWithOneRow() model.Table {
	return model.Table{Fields: []string{"a"}, Records: []model.Record{{"a": model.Int(1)}}}
}

func TestGetOrComputeCachesAcrossCalls(t *testing.T) {
	store := testStore(t)
	var calls int32

	fetch := func(ctx context.Context, interfaceName string, params map[string]string) (model.Table, error) {
		atomic.AddInt32(&calls, 1)
		return tableWithOneRow(), nil
	}

	params := map[string]string{"end_date": "2020-01-01"}
	t1, err := store.GetOrCompute(context.Background(), "iface", params, fetch)
	require.NoError(t, err)
	t2, err := store.GetOrCompute(context.Background(), "iface", params, fetch)
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetOrComputeSingleflightCollapsesConcurrentMisses(t *testing.T) {
	store := testStore(t)
	var calls int32
	release := make(chan struct{})

	fetch := func(ctx context.Context, interfaceName string, params map[string]string) (model.Table, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return tableWithOneRow(), nil
	}

	params := map[string]string{"end_date": "2020-01-01"}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.GetOrCompute(context.Background(), "iface", params, fetch)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetOrComputeServesStaleOnUpstreamError(t *testing.T) {
	store := testStore(t)
	// No end_date: the entry is current-day data and expires at midnight.
	params := map[string]string{"symbol": "600000"}

	_, err := store.GetOrCompute(context.Background(), "iface", params, func(ctx context.Context, interfaceName string, p map[string]string) (model.Table, error) {
		return tableWithOneRow(), nil
	})
	require.NoError(t, err)

	// Force staleness by rewriting the entry's meta with a stored_at two
	// days in the past, then fail the upstream call: the stale entry is
	// served instead of the error.
	_, metaPath := store.paths("iface", keyHash("iface", params))
	staleMeta, err := json.Marshal(meta{StoredAt: time.Now().Add(-48 * time.Hour), Params: params})
	require.NoError(t, err)
	require.NoError(t, atomicWrite(metaPath, staleMeta))

	failing := func(ctx context.Context, interfaceName string, p map[string]string) (model.Table, error) {
		return model.Table{}, assertErr{}
	}
	stale, err := store.GetOrCompute(context.Background(), "iface", params, failing)
	require.NoError(t, err)
	assert.Equal(t, tableWithOneRow(), stale)

	// A key with no prior entry has nothing stale to serve, so the error
	// propagates.
	_, err = store.GetOrCompute(context.Background(), "iface-missing", params, failing)
	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "upstream failed" }
