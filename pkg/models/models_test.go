package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableClone(t *testing.T) {
	tbl := NewTable("a", "b")
	tbl.Append(Row{"a": 1.0, "b": "x"})

	cp := tbl.Clone()
	cp.Rows[0]["a"] = 2.0
	cp.Columns[0] = "z"

	assert.Equal(t, 1.0, tbl.Rows[0]["a"])
	assert.Equal(t, "a", tbl.Columns[0])
	assert.Equal(t, []interface{}{1.0}, tbl.Values("a"))
	assert.Equal(t, 1, tbl.ColumnIndex("b"))
	assert.False(t, tbl.HasColumn("c"))
	assert.Equal(t, 0, (*Table)(nil).Len())
}

func TestJoinFolder(t *testing.T) {
	assert.Equal(t, "proc/ndc/2022-01-01", JoinFolder("/proc/ndc/", "2022-01-01"))
	assert.Equal(t, "proc", JoinFolder("proc/", ""))
	assert.Equal(t, "", JoinFolder("/", ""))
	assert.Equal(t, "2022-01-01", Source{Folder: "2022-01-01"}.Dir())
}

func TestFormatFromFilename(t *testing.T) {
	assert.Equal(t, FormatParquet, FormatFromFilename("daily.PARQUET"))
	assert.Equal(t, FormatXLSX, FormatFromFilename("a.xlsx"))
	assert.Equal(t, FormatCSV, FormatFromFilename("a.csv"))
	assert.Equal(t, FormatCSV, FormatFromFilename("noext"))
}
