package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type tags a cell value or a column's inferred type.
type Type string

const (
	TypeNull    Type = "null"
	TypeText    Type = "text"
	TypeInteger Type = "integer"
	TypeReal    Type = "real"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
	TypeUnknown Type = "unknown"
)

// dateLayouts are the recognized textual date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
}

// Value is a tagged variant holding one spreadsheet cell.
// Exactly the field selected by Kind is meaningful; a null cell carries
// Kind == TypeNull and nothing else.
type Value struct {
	Kind Type
	Text string
	Int  int64
	Real float64
	Bool bool
	Date time.Time
}

// Null is the canonical empty-cell value.
var Null = Value{Kind: TypeNull}

// IsNull reports whether the value represents an empty cell.
func (v Value) IsNull() bool { return v.Kind == TypeNull || v.Kind == "" }

// Scalar returns the Go-native representation for serialization.
func (v Value) Scalar() any {
	switch v.Kind {
	case TypeInteger:
		return v.Int
	case TypeReal:
		return v.Real
	case TypeBoolean:
		return v.Bool
	case TypeDate:
		return v.Date.Format("2006-01-02")
	case TypeText:
		return v.Text
	default:
		return nil
	}
}

// String renders the value for grouping and display. Null renders empty.
func (v Value) String() string {
	switch v.Kind {
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeReal:
		return strconv.FormatFloat(v.Real, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeDate:
		return v.Date.Format("2006-01-02")
	case TypeText:
		return v.Text
	default:
		return ""
	}
}

// MarshalJSON encodes the value as its scalar form (null for empty cells).
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Scalar())
}

// ParseCell converts a raw cell string into a tagged Value. Whitespace-only
// cells are null. Parse precedence: boolean, integer, real, date, text.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null
	}
	switch strings.ToLower(s) {
	case "true", "false":
		return Value{Kind: TypeBoolean, Bool: strings.EqualFold(s, "true")}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Value{Kind: TypeInteger, Int: n}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{Kind: TypeReal, Real: f}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Value{Kind: TypeDate, Date: t}
		}
	}
	return Value{Kind: TypeText, Text: s}
}

// Column describes one dataset column in source order.
type Column struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Row maps column name to a typed cell value. Every row of a dataset carries
// the identical column set.
type Row map[string]Value

// Dataset is an immutable-after-load tabular snapshot of one sheet.
type Dataset struct {
	Columns []Column
	Rows    []Row
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int { return len(d.Rows) }

// ColumnCount returns the number of column descriptors.
func (d *Dataset) ColumnCount() int { return len(d.Columns) }

// ColumnNames returns names in source order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the descriptor for name when present.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// FindColumn returns the first column whose name contains sub
// (case-insensitive). Used for detecting education-specific columns.
func (d *Dataset) FindColumn(subs ...string) (string, bool) {
	for _, c := range d.Columns {
		low := strings.ToLower(c.Name)
		for _, sub := range subs {
			if strings.Contains(low, sub) {
				return c.Name, true
			}
		}
	}
	return "", false
}

// typeTracker accumulates parse evidence for one column during a load.
type typeTracker struct {
	nonNull int
	intOK   int
	realOK  int
	boolOK  int
	dateOK  int
}

// Observe records one non-null cell value.
func (t *typeTracker) Observe(v Value) {
	if v.IsNull() {
		return
	}
	t.nonNull++
	switch v.Kind {
	case TypeInteger:
		t.intOK++
		t.realOK++ // integers also satisfy real
	case TypeReal:
		t.realOK++
	case TypeBoolean:
		t.boolOK++
	case TypeDate:
		t.dateOK++
	}
}

// Infer reduces the evidence to a single column type. A column takes a
// narrower type only when every non-null value parsed as it; mixed columns
// degrade to text and fully empty columns to unknown.
func (t *typeTracker) Infer() Type {
	if t.nonNull == 0 {
		return TypeUnknown
	}
	switch {
	case t.intOK == t.nonNull:
		return TypeInteger
	case t.realOK == t.nonNull:
		return TypeReal
	case t.boolOK == t.nonNull:
		return TypeBoolean
	case t.dateOK == t.nonNull:
		return TypeDate
	}
	return TypeText
}

// Build assembles a Dataset from header names and raw cell rows, inferring
// column types and normalizing header collisions. Headers are trimmed;
// blanks become "column_<n>" and duplicates gain a positional suffix.
func Build(headers []string, rawRows [][]string) *Dataset {
	names := normalizeHeaders(headers)

	trackers := make([]typeTracker, len(names))
	rows := make([]Row, 0, len(rawRows))
	for _, raw := range rawRows {
		row := make(Row, len(names))
		for i, name := range names {
			var v Value
			if i < len(raw) {
				v = ParseCell(raw[i])
			} else {
				v = Null
			}
			trackers[i].Observe(v)
			row[name] = v
		}
		rows = append(rows, row)
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Type: trackers[i].Infer()}
	}
	return &Dataset{Columns: cols, Rows: rows}
}

// normalizeHeaders trims names, fills blanks positionally, and disambiguates
// duplicates with a positional suffix instead of silently colliding.
func normalizeHeaders(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := seen[name]; n > 0; n = seen[name] {
			seen[base]++
			name = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[name] = 1
		names[i] = name
	}
	return names
}
