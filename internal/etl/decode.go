package etl

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode turns a downloaded blob into a table according to format.
func Decode(format models.Format, data []byte) (*models.Table, error) {
	switch format {
	case models.FormatCSV, "":
		return DecodeCSV(data)
	case models.FormatParquet:
		return DecodeParquet(data)
	case models.FormatXLSX:
		return DecodeXLSX(data)
	default:
		return nil, fmt.Errorf("unsupported source format %q", format)
	}
}

// DecodeCSV reads a comma separated file with a header row. A byte order
// mark selects the encoding; without one the input is read as UTF-8. Empty
// cells become nil.
func DecodeCSV(data []byte) (*models.Table, error) {
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(decoded)

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	columns, err := headerColumns(header)
	if err != nil {
		return nil, err
	}

	t := models.NewTable(columns...)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		row := make(models.Row, len(columns))
		for i, c := range columns {
			row[c] = cell(rec[i])
		}
		t.Append(row)
	}
	return t, nil
}

// DecodeXLSX reads the first sheet of a workbook with a header row.
func DecodeXLSX(data []byte) (*models.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	columns, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}
	t := models.NewTable(columns...)
	for _, rec := range rows[1:] {
		if len(rec) > len(columns) {
			return nil, fmt.Errorf("sheet %q: row has %d cells, header has %d", sheet, len(rec), len(columns))
		}
		row := make(models.Row, len(columns))
		for i, c := range columns {
			if i < len(rec) {
				row[c] = cell(rec[i])
			} else {
				row[c] = nil
			}
		}
		t.Append(row)
	}
	return t, nil
}

// DecodeParquet reads a flat Parquet file. Timestamps and dates become
// time.Time, numbers float64, byte arrays strings and nulls nil.
func DecodeParquet(data []byte) (*models.Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := f.Schema()
	paths := schema.Columns()
	columns := make([]string, len(paths))
	convert := make([]func(parquet.Value) interface{}, len(paths))
	for _, path := range paths {
		leaf, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("parquet column %q not found in schema", strings.Join(path, "."))
		}
		if leaf.MaxRepetitionLevel > 0 {
			return nil, fmt.Errorf("parquet column %q is repeated; only flat files are supported", strings.Join(path, "."))
		}
		columns[leaf.ColumnIndex] = strings.Join(path, ".")
		convert[leaf.ColumnIndex] = parquetConverter(leaf.Node)
	}

	t := models.NewTable(columns...)
	reader := parquet.NewReader(f)
	defer reader.Close()

	buf := make([]parquet.Row, 256)
	for {
		n, err := reader.ReadRows(buf)
		for _, values := range buf[:n] {
			row := make(models.Row, len(columns))
			for _, c := range columns {
				row[c] = nil
			}
			for _, v := range values {
				c := v.Column()
				if c < 0 || c >= len(columns) {
					continue
				}
				row[columns[c]] = convert[c](v)
			}
			t.Append(row)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	return t, nil
}

func parquetConverter(node parquet.Node) func(parquet.Value) interface{} {
	typ := node.Type()
	if lt := typ.LogicalType(); lt != nil {
		switch {
		case lt.Timestamp != nil:
			unit := lt.Timestamp.Unit
			return func(v parquet.Value) interface{} {
				if v.IsNull() {
					return nil
				}
				n := v.Int64()
				switch {
				case unit.Millis != nil:
					return time.UnixMilli(n).UTC()
				case unit.Micros != nil:
					return time.UnixMicro(n).UTC()
				default:
					return time.Unix(0, n).UTC()
				}
			}
		case lt.Date != nil:
			return func(v parquet.Value) interface{} {
				if v.IsNull() {
					return nil
				}
				return time.Unix(int64(v.Int32())*24*60*60, 0).UTC()
			}
		}
	}

	return func(v parquet.Value) interface{} {
		if v.IsNull() {
			return nil
		}
		switch v.Kind() {
		case parquet.Boolean:
			return v.Boolean()
		case parquet.Int32:
			return float64(v.Int32())
		case parquet.Int64:
			return float64(v.Int64())
		case parquet.Float:
			return float64(v.Float())
		case parquet.Double:
			return v.Double()
		case parquet.Int96:
			return int96Time(v.Int96())
		case parquet.ByteArray, parquet.FixedLenByteArray:
			return cell(string(v.ByteArray()))
		default:
			return v.String()
		}
	}
}

// julianUnixEpoch is the Julian day number of 1970-01-01.
const julianUnixEpoch = 2440588

// int96Time decodes the legacy Spark/Impala timestamp: nanoseconds of the day
// in the low 64 bits and the Julian day in the high 32.
func int96Time(i deprecated.Int96) time.Time {
	nanos := int64(i[1])<<32 | int64(i[0])
	day := int64(i[2]) - julianUnixEpoch
	return time.Unix(day*24*60*60, 0).Add(time.Duration(nanos)).UTC()
}

func headerColumns(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column %q in header", h)
		}
		seen[h] = true
		columns[i] = h
	}
	return columns, nil
}

func cell(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
