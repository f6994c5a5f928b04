package upstream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileListsAndHasInterfaces(t *testing.T) {
	path := writeCatalog(t, `{
		"categories": [
			{"name": "stocks", "description": "stock data", "interfaces": [
				{"name": "stock_zh_a_hist", "description": "history", "example_params": {"symbol": "600000"}}
			]}
		]
	}`)

	reg, err := LoadFile(path)
	require.NoError(t, err)

	assert.True(t, reg.Has("stock_zh_a_hist"))
	assert.False(t, reg.Has("nonexistent"))
	assert.Len(t, reg.List(), 1)
	assert.Equal(t, "stock_zh_a_hist", reg.Default())
}

func TestLoadFileRejectsMalformedDocument(t *testing.T) {
	path := writeCatalog(t, `not json`)
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileHonorsExplicitDefault(t *testing.T) {
	path := writeCatalog(t, `{
		"default_interface": "second",
		"categories": [
			{"name": "a", "interfaces": [
				{"name": "first"},
				{"name": "second"}
			]}
		]
	}`)
	reg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", reg.Default())
}
