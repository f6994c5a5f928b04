package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeIsOrderIndependent(t *testing.T) {
	a := canonicalize(map[string]string{"symbol": "600000", "start_date": "20200101"})
	b := canonicalize(map[string]string{"start_date": "20200101", "symbol": "600000"})
	assert.Equal(t, a, b)
}

func TestKeyHashIsDeterministic(t *testing.T) {
	params := map[string]string{"symbol": "600000"}
	a := keyHash("stock_zh_a_hist", params)
	b := keyHash("stock_zh_a_hist", params)
	assert.Equal(t, a, b)
}

func TestKeyHashDiffersByInterface(t *testing.T) {
	params := map[string]string{"symbol": "600000"}
	a := keyHash("stock_zh_a_hist", params)
	b := keyHash("stock_zh_a_daily", params)
	assert.NotEqual(t, a, b)
}
