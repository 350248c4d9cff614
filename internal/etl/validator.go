package etl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/BartekS5/metrics-etl/pkg/utils"
)

// ErrValidation is returned when a metric table breaks one of its output checks.
var ErrValidation = errors.New("metric table failed validation")

// OutputChecks describes what a metric table must satisfy before upload.
type OutputChecks struct {
	// PeriodColumn must be present, non-null and unique per row.
	PeriodColumn string
	// Numeric columns must hold finite numbers or nulls.
	Numeric []string
	// Ratios must additionally lie in [0, 1].
	Ratios []string
}

type Validator struct {
	Checks OutputChecks
}

func NewValidator(checks OutputChecks) *Validator {
	return &Validator{Checks: checks}
}

// Validate checks out against the configured guarantees. inputRows is the
// row count of the primary input; a metric table never has more rows.
func (v *Validator) Validate(out *models.Table, inputRows int) error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if out.Len() > inputRows {
		add("%d output rows from %d input rows", out.Len(), inputRows)
	}

	if col := v.Checks.PeriodColumn; col != "" {
		if !out.HasColumn(col) {
			add("period column %q missing", col)
		} else {
			seen := make(map[string]int, out.Len())
			for i, r := range out.Rows {
				if r[col] == nil {
					add("row %d: null period", i)
					continue
				}
				k := utils.ConvertToString(r[col])
				if prev, dup := seen[k]; dup {
					add("rows %d and %d share period %s", prev, i, k)
					continue
				}
				seen[k] = i
			}
		}
	}

	ratios := make(map[string]bool, len(v.Checks.Ratios))
	for _, c := range v.Checks.Ratios {
		ratios[c] = true
	}
	numeric := append(append([]string(nil), v.Checks.Numeric...), v.Checks.Ratios...)
	for _, col := range numeric {
		if !out.HasColumn(col) {
			add("column %q missing", col)
			continue
		}
		for i, r := range out.Rows {
			f, ok, err := utils.ConvertToFloat(r[col])
			if err != nil {
				add("row %d column %q: %v", i, col, err)
				continue
			}
			if !ok {
				continue
			}
			if !utils.IsFinite(f) {
				add("row %d column %q: %v is not finite", i, col, f)
				continue
			}
			if ratios[col] && (f < 0 || f > 1) {
				add("row %d column %q: %v outside [0,1]", i, col, f)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
