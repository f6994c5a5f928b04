package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

func TestTableFromRowsPreservesFieldOrderByFirstSeen(t *testing.T) {
	rows := []interface{}{
		map[string]interface{}{"date": "2024-01-01", "close": 10.5},
		map[string]interface{}{"close": 11.0, "date": "2024-01-02", "volume": float64(100)},
	}
	table, err := tableFromRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "close", "volume"}, table.Fields)
	assert.Len(t, table.Records, 2)
	assert.Equal(t, "2024-01-01", table.Records[0]["date"].StringValue())
}

func TestCellFromUpstreamValueHandlesNaNAndInf(t *testing.T) {
	nan := cellFromUpstreamValue(nanFloat())
	assert.Equal(t, model.CellNull, nan.Kind)

	integral := cellFromUpstreamValue(float64(42))
	assert.Equal(t, int64(42), integral.I)

	fractional := cellFromUpstreamValue(float64(3.5))
	assert.Equal(t, 3.5, fractional.F)
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}

func TestNormalizeProjectsThroughDataPath(t *testing.T) {
	raw := []byte(`{"code":0,"data":{"list":[{"a":1},{"a":2}]}}`)
	iface := Interface{DataPath: "$.data.list"}

	table, err := normalize(raw, iface)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, table.Fields)
	assert.Len(t, table.Records, 2)
}

func TestNormalizeRejectsNonArrayDataPath(t *testing.T) {
	raw := []byte(`{"code":0,"data":{"list":"not-an-array"}}`)
	iface := Interface{DataPath: "$.data.list"}

	_, err := normalize(raw, iface)
	assert.Error(t, err)
}
