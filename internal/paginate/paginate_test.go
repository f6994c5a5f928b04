package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

func sampleTable(n int) model.Table {
	records := make([]model.Record, n)
	for i := 0; i < n; i++ {
		records[i] = model.Record{"idx": model.Int(int64(i))}
	}
	return model.Table{Fields: []string{"idx"}, Records: records}
}

func TestPaginateClampsPageSize(t *testing.T) {
	table := sampleTable(10)

	p := Paginate(table, 1, 0)
	assert.Len(t, p.Data.Records, 1)

	p = Paginate(table, 1, 10000)
	assert.Len(t, p.Data.Records, 10)
}

func TestPaginateClampsPageNumber(t *testing.T) {
	table := sampleTable(25)
	p := Paginate(table, -5, 10)
	assert.Equal(t, 1, p.CurrentPage)

	p = Paginate(table, 999, 10)
	assert.Equal(t, 3, p.CurrentPage)
}

func TestPaginateTotalPagesMinimumOneWhenEmpty(t *testing.T) {
	p := Paginate(model.Table{Fields: []string{"a"}}, 1, 10)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.TotalRecords)
}

func TestPaginateRoundTripCoversAllRecords(t *testing.T) {
	table := sampleTable(47)
	pageSize := 10

	var collected []model.Record
	totalPages := Paginate(table, 1, pageSize).TotalPages
	for i := 1; i <= totalPages; i++ {
		p := Paginate(table, i, pageSize)
		collected = append(collected, p.Data.Records...)
	}

	assert.Equal(t, table.Records, collected)
}

func TestPaginateIsDeterministic(t *testing.T) {
	table := sampleTable(33)
	a := Paginate(table, 2, 10)
	b := Paginate(table, 2, 10)
	assert.Equal(t, a, b)
}
