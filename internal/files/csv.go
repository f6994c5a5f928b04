package files

import (
	"encoding/csv"
	"io"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/model"
)

// ParseCSV interprets r as a comma-separated tabular document with a
// header row, per §4.7 browse. CSV carries no type information, so every
// non-empty cell becomes a string Cell verbatim (never numeric- or
// bool-coerced — a zero-padded symbol like "000001" must round-trip
// unchanged); short rows are padded with null, long rows are truncated to
// the header width.
func ParseCSV(r io.Reader) (model.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return model.Table{Fields: []string{}}, nil
	}
	if err != nil {
		return model.Table{}, errors.ParseError("failed to parse CSV header", err)
	}

	var records []model.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Table{}, errors.ParseError("failed to parse CSV row", err)
		}

		rec := make(model.Record, len(header))
		for i, field := range header {
			if i < len(row) {
				rec[field] = inferCell(row[i])
			} else {
				rec[field] = model.Null()
			}
		}
		records = append(records, rec)
	}

	if records == nil {
		records = []model.Record{}
	}
	return model.Table{Fields: header, Records: records}, nil
}

func inferCell(raw string) model.Cell {
	if raw == "" {
		return model.Null()
	}
	return model.String(raw)
}
