package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPushRecorder(t *testing.T) {
	_, err := NewPushRecorder("", "job", "m")
	require.Error(t, err)

	r, err := NewPushRecorder("http://pushgateway:9091", "", "m")
	require.NoError(t, err)
	assert.Equal(t, "metrics_etl", r.job)
}

func TestPushRecorderCollects(t *testing.T) {
	r, err := NewPushRecorder("http://pushgateway:9091", "etl", "gp_it_standards_month_prop")
	require.NoError(t, err)

	r.RecordStep("extract", nil, 2*time.Second)
	r.RecordStep("extract", nil, time.Second)
	r.RecordStep("load", errors.New("boom"), time.Second)
	r.RecordRows("output", 12)
	r.MarkSuccess(time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.steps.WithLabelValues("extract", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.steps.WithLabelValues("load", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.duration.WithLabelValues("extract", "success")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.rows.WithLabelValues("output")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastSuccess))
}

func TestPushRecorderFlush(t *testing.T) {
	var (
		mu     sync.Mutex
		path   string
		body   string
		method string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		mu.Lock()
		path, method, body = req.URL.Path, req.Method, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r, err := NewPushRecorder(srv.URL, "etl", "ndc")
	require.NoError(t, err)
	r.RecordRows("source", 3)
	require.NoError(t, r.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/etl/metric/ndc", path)
	assert.NotEmpty(t, body)
}

func TestPushRecorderFlushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := NewPushRecorder(srv.URL, "etl", "")
	require.NoError(t, err)
	err = r.Flush()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), srv.URL))
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordStep("x", nil, time.Second)
	r.RecordRows("x", 1)
	r.MarkSuccess(time.Now())
	assert.NoError(t, r.Flush())
}
