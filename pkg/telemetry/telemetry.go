// Package telemetry records per-run pipeline measurements: how long each step
// took, whether it failed and how many rows moved through it. Recording is
// optional; the Nop recorder is used when no Pushgateway is configured.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder receives the measurements of one pipeline run.
type Recorder interface {
	RecordStep(step string, err error, d time.Duration)
	RecordRows(kind string, n int)
	MarkSuccess(t time.Time)
	// Flush hands the collected values to the backend once the run ends.
	Flush() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordStep(string, error, time.Duration) {}
func (Nop) RecordRows(string, int)                  {}
func (Nop) MarkSuccess(time.Time)                   {}
func (Nop) Flush() error                            { return nil }

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// PushRecorder keeps measurements in its own registry and pushes them to a
// Prometheus Pushgateway on Flush, grouped by job and metric.
type PushRecorder struct {
	gatewayURL string
	job        string
	metric     string
	reg        *prometheus.Registry

	steps       *prometheus.CounterVec
	duration    *prometheus.GaugeVec
	rows        *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
}

func NewPushRecorder(gatewayURL, job, metric string) (*PushRecorder, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("telemetry: gateway URL is required")
	}
	if job == "" {
		job = "metrics_etl"
	}

	r := &PushRecorder{
		gatewayURL: gatewayURL,
		job:        job,
		metric:     metric,
		reg:        prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metrics_etl_step_total",
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "metrics_etl_step_duration_seconds",
			Help: "Duration of the last execution of each pipeline step.",
		}, []string{"step", "status"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "metrics_etl_rows",
			Help: "Rows seen by the last run, by kind (source, reference, output).",
		}, []string{"kind"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metrics_etl_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}

	for _, c := range []prometheus.Collector{r.steps, r.duration, r.rows, r.lastSuccess} {
		if err := r.reg.Register(c); err != nil {
			return nil, fmt.Errorf("telemetry: register collector: %w", err)
		}
	}
	return r, nil
}

func (r *PushRecorder) RecordStep(step string, err error, d time.Duration) {
	s := status(err)
	r.steps.WithLabelValues(step, s).Inc()
	r.duration.WithLabelValues(step, s).Set(d.Seconds())
}

func (r *PushRecorder) RecordRows(kind string, n int) {
	r.rows.WithLabelValues(kind).Set(float64(n))
}

func (r *PushRecorder) MarkSuccess(t time.Time) {
	r.lastSuccess.Set(float64(t.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (r *PushRecorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Flush replaces the run's group on the Pushgateway.
func (r *PushRecorder) Flush() error {
	p := push.New(r.gatewayURL, r.job).Gatherer(r.reg)
	if r.metric != "" {
		p = p.Grouping("metric", r.metric)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("telemetry: push to %s: %w", r.gatewayURL, err)
	}
	return nil
}
