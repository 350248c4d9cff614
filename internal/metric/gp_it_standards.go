package metric

import (
	"github.com/BartekS5/metrics-etl/internal/config"
	"github.com/BartekS5/metrics-etl/internal/etl"
	"github.com/BartekS5/metrics-etl/pkg/models"
)

const (
	colGPDate          = "Date"
	colGPPracticeODS   = "Practice ODS Code"
	colGPFullyComplete = "FULLY COMPLIANT"

	colGPPracticeCode = "Practice code"
	colGPCompliance   = "GP practice compliance with IT standards"

	ColGPCompliantCount = "Number of GP practices compliant with IT standards"
	ColGPPracticeCount  = "Number of GP practices"
	ColGPCompliantRatio = "Percentage of GP practices compliant with IT standards"
)

// GPITStandards is the monthly proportion of GP practices compliant with IT
// standards, from the practice-level compliance extract.
type GPITStandards struct{}

func (GPITStandards) Name() string { return "gp_it_standards_month_prop" }

func (GPITStandards) Description() string {
	return "Monthly proportion of GP practices compliant with IT standards"
}

func (GPITStandards) ConfigFile() string { return "config_gp_it_standards_dbrks.json" }

func (GPITStandards) Keys() config.Keys {
	return config.Keys{
		Source: config.SourceKeys{
			Role:     "source",
			PathKey:  "source_path",
			FileKey:  "source_file",
			Required: []string{colGPDate, colGPPracticeODS, colGPFullyComplete},
		},
		SinkIndex: 0,
	}
}

func (GPITStandards) Transform(in etl.Inputs) (*models.Table, error) {
	return etl.NewTransformer(in["source"]).
		ParseDates(colGPDate).
		Rename(map[string]string{
			colGPPracticeODS:   colGPPracticeCode,
			colGPFullyComplete: colGPCompliance,
		}).
		MapValues(colGPCompliance, map[string]float64{"YES": 1, "NO": 0}).
		GroupBy(colGPDate, etl.Sum(colGPCompliance), etl.Count(colGPPracticeCode)).
		Rename(map[string]string{
			colGPCompliance:   ColGPCompliantCount,
			colGPPracticeCode: ColGPPracticeCount,
		}).
		Ratio(ColGPCompliantCount, ColGPPracticeCount, ColGPCompliantRatio, 4).
		Result()
}

func (GPITStandards) Checks() etl.OutputChecks {
	return etl.OutputChecks{
		PeriodColumn: colGPDate,
		Numeric:      []string{ColGPCompliantCount, ColGPPracticeCount},
		Ratios:       []string{ColGPCompliantRatio},
	}
}
