// Package model defines the Cell/Table tabular value types every upstream
// result, cached payload, and user-uploaded file is normalized into.
package model

import (
	"encoding/json"
	"fmt"
)

// CellKind tags which variant of Cell is populated.
type CellKind int

const (
	CellNull CellKind = iota
	CellString
	CellInt
	CellFloat
	CellBool
)

// Cell is a scalar table value: exactly one of null, string, int64,
// float64, bool. Any non-scalar upstream value is stringified at ingest
// (§4.4); NaN/±Inf become CellNull.
type Cell struct {
	Kind CellKind
	Str  string
	I    int64
	F    float64
	B    bool
}

func Null() Cell                { return Cell{Kind: CellNull} }
func String(s string) Cell      { return Cell{Kind: CellString, Str: s} }
func Int(i int64) Cell          { return Cell{Kind: CellInt, I: i} }
func Float(f float64) Cell      { return Cell{Kind: CellFloat, F: f} }
func Bool(b bool) Cell          { return Cell{Kind: CellBool, B: b} }

// MarshalJSON renders the cell as its natural JSON scalar.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellString:
		return json.Marshal(c.Str)
	case CellInt:
		return json.Marshal(c.I)
	case CellFloat:
		return json.Marshal(c.F)
	case CellBool:
		return json.Marshal(c.B)
	default:
		return json.Marshal(nil)
	}
}

// UnmarshalJSON infers the Cell kind from the JSON scalar's shape.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = cellFromAny(raw)
	return nil
}

func cellFromAny(v interface{}) Cell {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// StringValue renders the cell as display text ("" for null).
func (c Cell) StringValue() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellInt:
		return fmt.Sprintf("%d", c.I)
	case CellFloat:
		return fmt.Sprintf("%g", c.F)
	case CellBool:
		return fmt.Sprintf("%t", c.B)
	default:
		return ""
	}
}

// Record is one row: an ordered set of field→value pairs, keyed by the
// Table's shared Fields order.
type Record map[string]Cell

// Table is an ordered sequence of records sharing one ordered field-name
// set (§3 TabularResult). Fields is never empty for a well-formed Table
// except the explicit zero-record case, and field order is stable across
// pagination. The {fields, records} shape here is the internal wire
// format (cache payloads, uploaded-file parsing); the HTTP response
// envelope flattens Rows() into one object per record instead.
type Table struct {
	Fields  []string `json:"fields"`
	Records []Record `json:"records"`
}

// Rows renders each record as a map keyed by Fields, filling absent
// fields with null, for API responses that want one JSON object per
// record rather than the {fields, records} wire shape. The maps carry no
// field order: encoding/json writes their keys in sorted order, not in
// Fields order.
func (t Table) Rows() []map[string]Cell {
	out := make([]map[string]Cell, 0, len(t.Records))
	for _, rec := range t.Records {
		r := make(map[string]Cell, len(t.Fields))
		for _, f := range t.Fields {
			if v, ok := rec[f]; ok {
				r[f] = v
			} else {
				r[f] = Null()
			}
		}
		out = append(out, r)
	}
	return out
}

// RowCount reports how many records the table holds.
func (t Table) RowCount() int { return len(t.Records) }
