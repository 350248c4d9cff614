package etl

import (
	"errors"
	"testing"
	"time"

	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(cols []string, rows ...[]interface{}) *models.Table {
	t := models.NewTable(cols...)
	for _, vals := range rows {
		r := make(models.Row, len(cols))
		for i, c := range cols {
			r[c] = vals[i]
		}
		t.Append(r)
	}
	return t
}

func TestRename(t *testing.T) {
	in := table([]string{"a", "b"}, []interface{}{"1", "2"})

	out, err := Rename(in, map[string]string{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "b"}, out.Columns)
	assert.Equal(t, "1", out.Rows[0]["x"])
	assert.Equal(t, "1", in.Rows[0]["a"], "input must not change")

	_, err = Rename(in, map[string]string{"missing": "x"})
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = Rename(in, map[string]string{"a": "b"})
	require.Error(t, err)
}

func TestSelectDrop(t *testing.T) {
	in := table([]string{"a", "b", "c"}, []interface{}{1.0, 2.0, 3.0})

	out, err := Select(in, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.Columns)
	assert.NotContains(t, out.Rows[0], "b")

	out, err = Drop(in, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, out.Columns)

	_, err = Drop(in, "z")
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestMapValues(t *testing.T) {
	in := table([]string{"flag"},
		[]interface{}{"YES"}, []interface{}{" no "}, []interface{}{nil}, []interface{}{"1"})

	out, err := MapValues(in, "flag", map[string]float64{"YES": 1, "NO": 0})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 0.0, nil, 1.0}, out.Values("flag"))

	bad := table([]string{"flag"}, []interface{}{"MAYBE"})
	_, err = MapValues(bad, "flag", map[string]float64{"YES": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAYBE")
}

func TestTruncatePeriod(t *testing.T) {
	in := table([]string{"Daily"},
		[]interface{}{"2022-01-15"},
		[]interface{}{time.Date(2022, 2, 3, 10, 0, 0, 0, time.UTC)},
		[]interface{}{nil})

	out, err := TruncatePeriod(in, "Daily", PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"2022-01", "2022-02", nil}, out.Values("Daily"))

	_, err = TruncatePeriod(in, "Daily", Period("week"))
	require.Error(t, err)

	_, err = TruncatePeriod(table([]string{"Daily"}, []interface{}{"yesterday"}), "Daily", PeriodDay)
	require.Error(t, err)
}

func TestGroupByAndRatio(t *testing.T) {
	in := table([]string{"Date", "Practice code", "Compliant"},
		[]interface{}{"2021-11-01", "A1", 1.0},
		[]interface{}{"2021-11-01", "A2", 0.0},
		[]interface{}{"2021-11-01", "A3", 1.0},
	)

	out, err := NewTransformer(in).
		ParseDates("Date").
		GroupBy("Date", Sum("Compliant"), Count("Practice code")).
		Ratio("Compliant", "Practice code", "Ratio", 4).
		Result()
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"Date", "Compliant", "Practice code", "Ratio"}, out.Columns)
	assert.Equal(t, 2.0, out.Rows[0]["Compliant"])
	assert.Equal(t, 3.0, out.Rows[0]["Practice code"])
	assert.Equal(t, 0.6667, out.Rows[0]["Ratio"])
}

func TestGroupBySortsAndSkipsNullKeys(t *testing.T) {
	in := table([]string{"k", "v"},
		[]interface{}{"2022-02", 1.0},
		[]interface{}{nil, 5.0},
		[]interface{}{"2022-01", 2.0},
		[]interface{}{"2022-02", nil},
	)
	out, err := GroupBy(in, "k", Sum("v"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"2022-01", "2022-02"}, out.Values("k"))
	assert.Equal(t, []interface{}{2.0, 1.0}, out.Values("v"))
}

func TestRatioZeroDenominatorIsNull(t *testing.T) {
	in := table([]string{"n", "d"}, []interface{}{0.0, 0.0}, []interface{}{1.0, nil})

	out, err := Ratio(in, "n", "d", "r", 4)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, nil}, out.Values("r"))
}

func TestJoinDifferenceKeepPositive(t *testing.T) {
	eps := table([]string{"Date", "EPS"},
		[]interface{}{"2022-01", 100.0},
		[]interface{}{"2022-02", 50.0},
		[]interface{}{"2022-03", 10.0},
	)
	online := table([]string{"Report_Period_End", "Online"},
		[]interface{}{"2022-02", 60.0},
		[]interface{}{"2022-01", 80.0},
	)

	out, err := NewTransformer(eps).
		InnerJoin(online, "Date", "Report_Period_End").
		Difference("EPS", "Online", "Offline").
		KeepPositive("Offline").
		Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "EPS", "Online", "Offline"}, out.Columns)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "2022-01", out.Rows[0]["Date"])
	assert.Equal(t, 20.0, out.Rows[0]["Offline"])
}

func TestInnerJoinRejectsClashingColumns(t *testing.T) {
	l := table([]string{"k", "v"}, []interface{}{"a", 1.0})
	r := table([]string{"k", "v"}, []interface{}{"a", 2.0})
	_, err := InnerJoin(l, r, "k", "k")
	require.Error(t, err)
}

func TestFilterEqualsAndRound(t *testing.T) {
	in := table([]string{"Field", "Value"},
		[]interface{}{"Pat_Presc_Use", 1.23456},
		[]interface{}{"Other", 9.0},
	)
	out, err := FilterEquals(in, "Field", "Pat_Presc_Use")
	require.NoError(t, err)
	out = Round(out, 2)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, 1.23, out.Rows[0]["Value"])
	assert.Equal(t, 1.23456, in.Rows[0]["Value"])
}

func TestTransformerKeepsFirstError(t *testing.T) {
	in := table([]string{"a"}, []interface{}{"1"})
	_, err := NewTransformer(in).
		Rename(map[string]string{"nope": "x"}).
		Select("a").
		Result()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename")
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = NewTransformer(nil).Result()
	require.Error(t, err)
}
