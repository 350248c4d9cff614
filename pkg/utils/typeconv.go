package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayouts are tried in order when a cell has to become a date. Slashed
// and dashed dates with the year last are day first, as in NHS extracts, so
// 01/11/2021 is the first of November.
var DateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006/1/2 15:04:05",
	"2006/1/2",
	"2006/1",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
}

// ConvertDateTime turns a cell into a time. nil and empty strings return ok=false.
func ConvertDateTime(val interface{}) (t time.Time, ok bool, err error) {
	switch v := val.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("unable to parse datetime: %s", v)
	case []byte:
		return ConvertDateTime(string(v))
	default:
		return time.Time{}, false, fmt.Errorf("cannot convert %T to datetime", val)
	}
}

// ConvertToFloat turns a cell into a number. nil and empty strings return ok=false.
func ConvertToFloat(val interface{}) (f float64, ok bool, err error) {
	switch v := val.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int32:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case bool:
		if v {
			return 1, true, nil
		}
		return 0, true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("cannot convert %q to number", v)
		}
		return f, true, nil
	case []byte:
		return ConvertToFloat(string(v))
	default:
		return 0, false, fmt.Errorf("cannot convert %T to number", val)
	}
}

// ConvertToString renders a cell as text; used for keys and categorical values.
func ConvertToString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return FormatTime(v)
	case float64:
		return FormatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Round rounds half to even at the given number of decimal places.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}

// FormatFloat prints the shortest representation that round-trips, so whole
// numbers print without a fractional part.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatTime prints a date, or a full timestamp when the time carries a clock.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// FormatCell renders a cell for delimited text output. nil becomes an empty cell.
func FormatCell(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return FormatFloat(v)
	case time.Time:
		return FormatTime(v)
	default:
		return ConvertToString(v)
	}
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
