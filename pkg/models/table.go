// Package models holds the in-memory table shape shared by the extract,
// transform and load stages, plus the descriptors of where tables come from
// and go to.
package models

// Row is one observation keyed by column name. Cell values are string,
// float64, time.Time or nil.
type Row map[string]interface{}

// Table is an ordered set of named columns and the rows that carry them.
type Table struct {
	Columns []string
	Rows    []Row
}

func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds a row. Keys that are not table columns are kept on the row but
// never serialized.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Values returns the cells of one column in row order.
func (t *Table) Values(column string) []interface{} {
	out := make([]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[column]
	}
	return out
}

// Clone copies the table deeply enough that transforms never mutate their input.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}
