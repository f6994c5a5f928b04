// Package paginate projects a tabular result to one page with metadata
// (C6). It is pure: no I/O, no JSON, nothing a retrieved third-party
// library addresses.
package paginate

import (
	"encoding/json"

	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

const (
	minPageSize = 1
	maxPageSize = 500
)

// Page is the paginated projection of a Table: current_page, total_pages,
// and total_records accompany the sliced data.
type Page struct {
	Data         model.Table `json:"-"`
	CurrentPage  int         `json:"current_page"`
	TotalPages   int         `json:"total_pages"`
	TotalRecords int         `json:"total_records"`
}

// MarshalJSON renders Data as one JSON object per record (§6's
// `{data, current_page, total_pages, total_records}` envelope), rather
// than Table's internal {fields, records} wire shape.
func (p Page) MarshalJSON() ([]byte, error) {
	type wire struct {
		Data         []map[string]model.Cell `json:"data"`
		CurrentPage  int                      `json:"current_page"`
		TotalPages   int                      `json:"total_pages"`
		TotalRecords int                      `json:"total_records"`
	}
	return json.Marshal(wire{
		Data:         p.Data.Rows(),
		CurrentPage:  p.CurrentPage,
		TotalPages:   p.TotalPages,
		TotalRecords: p.TotalRecords,
	})
}

// Paginate slices table into the requested page. page and pageSize are
// clamped to their valid ranges rather than rejected: page is clamped to
// ≥1 (and to the last page once total is known), pageSize to [1, 500].
// Slicing is stable: identical (table, page, pageSize) always yields a
// byte-equal Page.
func Paginate(table model.Table, page, pageSize int) Page {
	if pageSize < minPageSize {
		pageSize = minPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(table.Records)
	totalPages := ceilDiv(total, pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	records := make([]model.Record, end-start)
	copy(records, table.Records[start:end])

	return Page{
		Data:         model.Table{Fields: table.Fields, Records: records},
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: total,
	}
}

func ceilDiv(total, size int) int {
	if size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
