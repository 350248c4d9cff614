package metric

import (
	"github.com/BartekS5/metrics-etl/internal/config"
	"github.com/BartekS5/metrics-etl/internal/etl"
	"github.com/BartekS5/metrics-etl/pkg/models"
)

const (
	colNDCDaily = "Daily"
	colNDCEPS   = "eps_repeat_prescriptions"

	colPOMIPeriodEnd = "Report_Period_End"
	colPOMIField     = "Field"
	colPOMIValue     = "Value"
	pomiRepeatField  = "Pat_Presc_Use"

	colNDCDate           = "Date"
	ColNDCEPSCount       = "Number of EPS repeat prescriptions"
	ColNDCOnlineCount    = "Total number of online repeat prescriptions"
	ColNDCOfflineCount   = "Number of offline repeat prescriptions"
	roleNDCReferencePOMI = "reference"
)

// NDCRepeatPrescriptions counts repeat prescriptions issued offline per month:
// EPS repeat prescriptions minus those ordered online (POMI Pat_Presc_Use).
type NDCRepeatPrescriptions struct{}

func (NDCRepeatPrescriptions) Name() string {
	return "ndc_repeat_prescriptions_offline_month_count"
}

func (NDCRepeatPrescriptions) Description() string {
	return "Monthly count of repeat prescriptions not ordered online"
}

func (NDCRepeatPrescriptions) ConfigFile() string {
	return "config_national_digital_channels_dbrks.json"
}

func (NDCRepeatPrescriptions) Keys() config.Keys {
	return config.Keys{
		Source: config.SourceKeys{
			Role:     "source",
			PathKey:  "source_path",
			FileKey:  "source_file_daily",
			Format:   models.FormatParquet,
			Required: []string{colNDCDaily, colNDCEPS},
		},
		Reference: &config.SourceKeys{
			Role:     roleNDCReferencePOMI,
			PathKey:  "reference_source_path_pomi",
			FileKey:  "reference_source_file_pomi",
			Format:   models.FormatParquet,
			Required: []string{colPOMIPeriodEnd, colPOMIField, colPOMIValue},
		},
		SinkIndex: 37,
	}
}

func (NDCRepeatPrescriptions) Transform(in etl.Inputs) (*models.Table, error) {
	online, err := etl.NewTransformer(in[roleNDCReferencePOMI]).
		FilterEquals(colPOMIField, pomiRepeatField).
		Select(colPOMIPeriodEnd, colPOMIValue).
		TruncatePeriod(colPOMIPeriodEnd, etl.PeriodMonth).
		GroupBy(colPOMIPeriodEnd, etl.Sum(colPOMIValue)).
		Result()
	if err != nil {
		return nil, err
	}

	return etl.NewTransformer(in["source"]).
		Select(colNDCDaily, colNDCEPS).
		TruncatePeriod(colNDCDaily, etl.PeriodMonth).
		GroupBy(colNDCDaily, etl.Sum(colNDCEPS)).
		Rename(map[string]string{colNDCDaily: colNDCDate, colNDCEPS: ColNDCEPSCount}).
		InnerJoin(online, colNDCDate, colPOMIPeriodEnd).
		Rename(map[string]string{colPOMIValue: ColNDCOnlineCount}).
		Difference(ColNDCEPSCount, ColNDCOnlineCount, ColNDCOfflineCount).
		KeepPositive(ColNDCOfflineCount).
		Round(4).
		Result()
}

func (NDCRepeatPrescriptions) Checks() etl.OutputChecks {
	return etl.OutputChecks{
		PeriodColumn: colNDCDate,
		Numeric:      []string{ColNDCEPSCount, ColNDCOnlineCount, ColNDCOfflineCount},
	}
}
