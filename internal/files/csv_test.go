package files

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

func TestParseCSVCellsAreAlwaysStrings(t *testing.T) {
	input := "symbol,price,active\n600000,12.5,true\n600001,,false\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"symbol", "price", "active"}, table.Fields)
	require.Len(t, table.Records, 2)
	assert.Equal(t, model.CellString, table.Records[0]["price"].Kind)
	assert.Equal(t, "12.5", table.Records[0]["price"].StringValue())
	assert.Equal(t, model.CellString, table.Records[0]["active"].Kind)
	assert.Equal(t, "true", table.Records[0]["active"].StringValue())
	assert.Equal(t, model.CellNull, table.Records[1]["price"].Kind)
}

func TestParseCSVPreservesZeroPaddedSymbol(t *testing.T) {
	input := "symbol,price\n000001,10\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, table.Records, 1)
	assert.Equal(t, model.CellString, table.Records[0]["symbol"].Kind)
	assert.Equal(t, "000001", table.Records[0]["symbol"].StringValue())
}

func TestParseCSVEmptyInputYieldsNoFields(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Fields)
	assert.Empty(t, table.Records)
}
