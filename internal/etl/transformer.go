package etl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/BartekS5/metrics-etl/pkg/utils"
)

// ErrMissingColumn is returned when a table lacks a column an operation needs.
var ErrMissingColumn = errors.New("missing column")

// Period is the granularity a date column is truncated to.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func (p Period) layout() (string, error) {
	switch p {
	case PeriodDay:
		return "2006-01-02", nil
	case PeriodMonth:
		return "2006-01", nil
	case PeriodYear:
		return "2006", nil
	default:
		return "", fmt.Errorf("unknown period %q", p)
	}
}

func requireColumns(t *models.Table, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (have %s)", ErrMissingColumn,
			strings.Join(missing, ", "), strings.Join(t.Columns, ", "))
	}
	return nil
}

// Rename renames columns per mapping (old name to new name).
func Rename(t *models.Table, mapping map[string]string) (*models.Table, error) {
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	if err := requireColumns(t, olds...); err != nil {
		return nil, err
	}

	out := models.NewTable()
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		name := c
		if n, ok := mapping[c]; ok {
			name = n
		}
		if seen[name] {
			return nil, fmt.Errorf("rename: column %q would appear twice", name)
		}
		seen[name] = true
		out.Columns = append(out.Columns, name)
	}
	for _, r := range t.Rows {
		row := make(models.Row, len(r))
		for k, v := range r {
			if n, ok := mapping[k]; ok {
				k = n
			}
			row[k] = v
		}
		out.Append(row)
	}
	return out, nil
}

// Select keeps only cols, in the given order.
func Select(t *models.Table, cols ...string) (*models.Table, error) {
	if err := requireColumns(t, cols...); err != nil {
		return nil, err
	}
	out := models.NewTable(cols...)
	for _, r := range t.Rows {
		row := make(models.Row, len(cols))
		for _, c := range cols {
			row[c] = r[c]
		}
		out.Append(row)
	}
	return out, nil
}

// Drop removes cols.
func Drop(t *models.Table, cols ...string) (*models.Table, error) {
	if err := requireColumns(t, cols...); err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	return Select(t, keep...)
}

// MapValues replaces categorical text in col with numbers. Matching ignores
// surrounding space and case. Empty cells become nil, cells that are already
// numeric are kept, anything else is an error.
func MapValues(t *models.Table, col string, mapping map[string]float64) (*models.Table, error) {
	if err := requireColumns(t, col); err != nil {
		return nil, err
	}
	norm := make(map[string]float64, len(mapping))
	for k, v := range mapping {
		norm[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	out := t.Clone()
	for i, r := range out.Rows {
		v := r[col]
		s := strings.TrimSpace(utils.ConvertToString(v))
		if s == "" {
			r[col] = nil
			continue
		}
		if n, ok := norm[strings.ToUpper(s)]; ok {
			r[col] = n
			continue
		}
		if f, ok, err := utils.ConvertToFloat(v); err == nil && ok {
			r[col] = f
			continue
		}
		return nil, fmt.Errorf("column %q row %d: unexpected value %q", col, i, s)
	}
	return out, nil
}

// ParseDates converts col to time.Time. Empty cells become nil.
func ParseDates(t *models.Table, col string) (*models.Table, error) {
	if err := requireColumns(t, col); err != nil {
		return nil, err
	}
	out := t.Clone()
	for i, r := range out.Rows {
		ts, ok, err := utils.ConvertDateTime(r[col])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", col, i, err)
		}
		if !ok {
			r[col] = nil
			continue
		}
		r[col] = ts
	}
	return out, nil
}

// TruncatePeriod replaces the dates in col with their period string, for
// example "2021-11" for PeriodMonth.
func TruncatePeriod(t *models.Table, col string, period Period) (*models.Table, error) {
	layout, err := period.layout()
	if err != nil {
		return nil, err
	}
	parsed, err := ParseDates(t, col)
	if err != nil {
		return nil, err
	}
	for _, r := range parsed.Rows {
		if ts, ok := r[col].(time.Time); ok {
			r[col] = ts.Format(layout)
		}
	}
	return parsed, nil
}

// Filter keeps the rows for which keep returns true.
func Filter(t *models.Table, keep func(models.Row) bool) *models.Table {
	out := models.NewTable(t.Columns...)
	for _, r := range t.Clone().Rows {
		if keep(r) {
			out.Append(r)
		}
	}
	return out
}

// FilterEquals keeps the rows whose col renders as value.
func FilterEquals(t *models.Table, col, value string) (*models.Table, error) {
	if err := requireColumns(t, col); err != nil {
		return nil, err
	}
	return Filter(t, func(r models.Row) bool {
		return utils.ConvertToString(r[col]) == value
	}), nil
}

// AggFunc folds the cells of one group into a single value.
type AggFunc func(values []interface{}) (interface{}, error)

// Aggregation applies Func to Column within each group. The result keeps the
// column name.
type Aggregation struct {
	Column string
	Func   AggFunc
}

// Sum adds the numeric cells of col, skipping nulls. A group of nulls sums to 0.
func Sum(col string) Aggregation {
	return Aggregation{Column: col, Func: func(values []interface{}) (interface{}, error) {
		total := 0.0
		for _, v := range values {
			f, ok, err := utils.ConvertToFloat(v)
			if err != nil {
				return nil, err
			}
			if ok {
				total += f
			}
		}
		return total, nil
	}}
}

// Count counts the non-null cells of col.
func Count(col string) Aggregation {
	return Aggregation{Column: col, Func: func(values []interface{}) (interface{}, error) {
		n := 0
		for _, v := range values {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			n++
		}
		return float64(n), nil
	}}
}

// GroupBy collapses rows sharing the same key into one row, sorted ascending
// by key. Rows with a null key are dropped.
func GroupBy(t *models.Table, key string, aggs ...Aggregation) (*models.Table, error) {
	cols := []string{key}
	for _, a := range aggs {
		cols = append(cols, a.Column)
	}
	if err := requireColumns(t, cols...); err != nil {
		return nil, err
	}

	type group struct {
		key    interface{}
		values [][]interface{}
	}
	groups := make(map[string]*group)
	var order []*group
	for _, r := range t.Rows {
		k := r[key]
		if k == nil {
			continue
		}
		ks := utils.ConvertToString(k)
		g, ok := groups[ks]
		if !ok {
			g = &group{key: k, values: make([][]interface{}, len(aggs))}
			groups[ks] = g
			order = append(order, g)
		}
		for i, a := range aggs {
			g.values[i] = append(g.values[i], r[a.Column])
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return lessKey(order[i].key, order[j].key)
	})

	out := models.NewTable(cols...)
	for _, g := range order {
		row := models.Row{key: g.key}
		for i, a := range aggs {
			v, err := a.Func(g.values[i])
			if err != nil {
				return nil, fmt.Errorf("aggregate %q for %s=%s: %w", a.Column, key, utils.ConvertToString(g.key), err)
			}
			row[a.Column] = v
		}
		out.Append(row)
	}
	return out, nil
}

func lessKey(a, b interface{}) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Before(tb)
		}
	}
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa < fb
		}
	}
	return utils.ConvertToString(a) < utils.ConvertToString(b)
}

// InnerJoin pairs every left row with the right rows whose rightKey equals
// its leftKey. Left row order is kept and the right key column is dropped.
func InnerJoin(left, right *models.Table, leftKey, rightKey string) (*models.Table, error) {
	if err := requireColumns(left, leftKey); err != nil {
		return nil, fmt.Errorf("join left: %w", err)
	}
	if err := requireColumns(right, rightKey); err != nil {
		return nil, fmt.Errorf("join right: %w", err)
	}

	cols := append([]string(nil), left.Columns...)
	var rightCols []string
	for _, c := range right.Columns {
		if c == rightKey {
			continue
		}
		if left.HasColumn(c) {
			return nil, fmt.Errorf("join: column %q exists on both sides", c)
		}
		rightCols = append(rightCols, c)
	}
	cols = append(cols, rightCols...)

	index := make(map[string][]models.Row)
	for _, r := range right.Rows {
		if r[rightKey] == nil {
			continue
		}
		k := utils.ConvertToString(r[rightKey])
		index[k] = append(index[k], r)
	}

	out := models.NewTable(cols...)
	for _, l := range left.Rows {
		if l[leftKey] == nil {
			continue
		}
		for _, r := range index[utils.ConvertToString(l[leftKey])] {
			row := make(models.Row, len(cols))
			for _, c := range left.Columns {
				row[c] = l[c]
			}
			for _, c := range rightCols {
				row[c] = r[c]
			}
			out.Append(row)
		}
	}
	return out, nil
}

// Ratio sets out to num/den rounded to places. The result is nil when either
// side is null or den is zero.
func Ratio(t *models.Table, num, den, out string, places int) (*models.Table, error) {
	return derive(t, num, den, out, func(n, d float64) (float64, bool) {
		if d == 0 {
			return 0, false
		}
		return utils.Round(n/d, places), true
	})
}

// Difference sets out to a-b, nil when either side is null.
func Difference(t *models.Table, a, b, out string) (*models.Table, error) {
	return derive(t, a, b, out, func(x, y float64) (float64, bool) {
		return x - y, true
	})
}

func derive(t *models.Table, a, b, out string, fn func(x, y float64) (float64, bool)) (*models.Table, error) {
	if err := requireColumns(t, a, b); err != nil {
		return nil, err
	}
	res := t.Clone()
	if !res.HasColumn(out) {
		res.Columns = append(res.Columns, out)
	}
	for i, r := range res.Rows {
		x, okx, err := utils.ConvertToFloat(r[a])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", a, i, err)
		}
		y, oky, err := utils.ConvertToFloat(r[b])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", b, i, err)
		}
		r[out] = nil
		if !okx || !oky {
			continue
		}
		if v, ok := fn(x, y); ok {
			r[out] = v
		}
	}
	return res, nil
}

// KeepPositive keeps the rows whose col is greater than zero. Null and
// non-positive rows are dropped.
func KeepPositive(t *models.Table, col string) (*models.Table, error) {
	if err := requireColumns(t, col); err != nil {
		return nil, err
	}
	var convErr error
	out := Filter(t, func(r models.Row) bool {
		f, ok, err := utils.ConvertToFloat(r[col])
		if err != nil && convErr == nil {
			convErr = fmt.Errorf("column %q: %w", col, err)
		}
		return ok && f > 0
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

// Round rounds every float cell of the table to places.
func Round(t *models.Table, places int) *models.Table {
	out := t.Clone()
	for _, r := range out.Rows {
		for k, v := range r {
			if f, ok := v.(float64); ok {
				r[k] = utils.Round(f, places)
			}
		}
	}
	return out
}

// Transformer chains table operations and keeps the first error, so a
// metric recipe reads as the sequence of steps it performs.
type Transformer struct {
	table *models.Table
	err   error
}

func NewTransformer(t *models.Table) *Transformer {
	if t == nil {
		return &Transformer{err: errors.New("transform: nil table")}
	}
	return &Transformer{table: t}
}

func (tr *Transformer) apply(step string, fn func(*models.Table) (*models.Table, error)) *Transformer {
	if tr.err != nil {
		return tr
	}
	out, err := fn(tr.table)
	if err != nil {
		tr.err = fmt.Errorf("%s: %w", step, err)
		return tr
	}
	tr.table = out
	return tr
}

func (tr *Transformer) Rename(mapping map[string]string) *Transformer {
	return tr.apply("rename", func(t *models.Table) (*models.Table, error) { return Rename(t, mapping) })
}

func (tr *Transformer) Select(cols ...string) *Transformer {
	return tr.apply("select", func(t *models.Table) (*models.Table, error) { return Select(t, cols...) })
}

func (tr *Transformer) Drop(cols ...string) *Transformer {
	return tr.apply("drop", func(t *models.Table) (*models.Table, error) { return Drop(t, cols...) })
}

func (tr *Transformer) MapValues(col string, mapping map[string]float64) *Transformer {
	return tr.apply("map values", func(t *models.Table) (*models.Table, error) { return MapValues(t, col, mapping) })
}

func (tr *Transformer) ParseDates(col string) *Transformer {
	return tr.apply("parse dates", func(t *models.Table) (*models.Table, error) { return ParseDates(t, col) })
}

func (tr *Transformer) TruncatePeriod(col string, period Period) *Transformer {
	return tr.apply("truncate period", func(t *models.Table) (*models.Table, error) { return TruncatePeriod(t, col, period) })
}

func (tr *Transformer) FilterEquals(col, value string) *Transformer {
	return tr.apply("filter", func(t *models.Table) (*models.Table, error) { return FilterEquals(t, col, value) })
}

func (tr *Transformer) GroupBy(key string, aggs ...Aggregation) *Transformer {
	return tr.apply("group by", func(t *models.Table) (*models.Table, error) { return GroupBy(t, key, aggs...) })
}

func (tr *Transformer) InnerJoin(right *models.Table, leftKey, rightKey string) *Transformer {
	return tr.apply("inner join", func(t *models.Table) (*models.Table, error) { return InnerJoin(t, right, leftKey, rightKey) })
}

func (tr *Transformer) Ratio(num, den, out string, places int) *Transformer {
	return tr.apply("ratio", func(t *models.Table) (*models.Table, error) { return Ratio(t, num, den, out, places) })
}

func (tr *Transformer) Difference(a, b, out string) *Transformer {
	return tr.apply("difference", func(t *models.Table) (*models.Table, error) { return Difference(t, a, b, out) })
}

func (tr *Transformer) KeepPositive(col string) *Transformer {
	return tr.apply("keep positive", func(t *models.Table) (*models.Table, error) { return KeepPositive(t, col) })
}

func (tr *Transformer) Round(places int) *Transformer {
	return tr.apply("round", func(t *models.Table) (*models.Table, error) { return Round(t, places), nil })
}

// Result returns the transformed table or the first error met along the way.
func (tr *Transformer) Result() (*models.Table, error) {
	if tr.err != nil {
		return nil, tr.err
	}
	return tr.table, nil
}
