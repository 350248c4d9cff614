package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/BartekS5/metrics-etl/internal/metric"
	"github.com/BartekS5/metrics-etl/internal/storage"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetFlagsFromEnv(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "")
	metricName := fs.String("metric", "", "")
	require.NoError(t, fs.Parse([]string{"--metric", "cli"}))

	t.Setenv("METRICS_ETL_DRY_RUN", "true")
	t.Setenv("METRICS_ETL_METRIC", "env")
	require.NoError(t, SetFlagsFromEnv(fs, "METRICS_ETL"))
	assert.True(t, *dryRun)
	assert.Equal(t, "cli", *metricName, "command line wins over environment")

	t.Setenv("METRICS_ETL_DRY_RUN", "maybe")
	fs2 := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs2.Bool("dry-run", false, "")
	require.Error(t, SetFlagsFromEnv(fs2, "METRICS_ETL"))
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	for _, name := range metric.Names() {
		assert.Contains(t, out, name)
	}
}

func setupLake(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFileStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	cfg := `{"pipeline": {"name": "gp_it", "adl_file_system": "lake", "project": {
  "source_path": "land/gp_it/", "source_file": "gp.csv",
  "databricks": [{"sink_path": "proc/gp_it/", "sink_file": "out.csv"}]}}}`
	require.NoError(t, store.Upload(ctx, []byte(cfg), "cfg", "pipelines", "config_gp_it_standards_dbrks.json"))
	require.NoError(t, store.Upload(ctx,
		[]byte("Practice ODS Code,FULLY COMPLIANT,Date\nA1,YES,2021-11-01\nA2,NO,2021-11-01\n"),
		"lake", "land/gp_it/2021-12-01", "gp.csv"))

	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("DATALAKEFS_CONNECTION_STRING", root)
	t.Setenv("PUSHGATEWAY_URL", "")
	t.Setenv("PUBLISH_DSN", "")
	return root
}

func TestRunCommand(t *testing.T) {
	root := setupLake(t)
	t.Setenv("METRICS_ETL_CONFIG_CONTAINER", "cfg")

	_, err := execute(t, "run", "--metric", "gp_it_standards_month_prop", "--config-path", "pipelines")
	require.NoError(t, err)

	store, err := storage.NewFileStore(root)
	require.NoError(t, err)
	data, err := store.Download(context.Background(), "lake", "proc/gp_it/2021-12-01", "out.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "0,2021-11-01,1,2,0.5\n")
}

func TestRunCommandDryRunAndPublish(t *testing.T) {
	root := setupLake(t)
	t.Setenv("PUBLISH_DSN", root+"/reporting.db")

	_, err := execute(t, "run", "-m", "gp_it_standards_month_prop",
		"--config-container", "cfg", "--config-path", "pipelines", "--dry-run", "--publish-driver", "sqlite")
	require.NoError(t, err)

	store, err := storage.NewFileStore(root)
	require.NoError(t, err)
	_, err = store.Download(context.Background(), "lake", "proc/gp_it/2021-12-01", "out.csv")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = execute(t, "run", "-m", "gp_it_standards_month_prop",
		"--config-container", "cfg", "--config-path", "pipelines", "--publish-driver", "sqlite")
	require.NoError(t, err)
}

func TestRunCommandErrors(t *testing.T) {
	setupLake(t)

	_, err := execute(t, "run")
	require.Error(t, err)

	_, err = execute(t, "run", "--metric", "unknown")
	require.Error(t, err)

	_, err = execute(t, "run", "--metric", "gp_it_standards_month_prop", "--config-container", "cfg", "--config-path", "elsewhere")
	require.Error(t, err)
}

func TestLatestCommand(t *testing.T) {
	setupLake(t)

	out, err := execute(t, "latest", "--container", "lake", "--prefix", "land/gp_it")
	require.NoError(t, err)
	assert.Contains(t, out, "2021-12-01\n")
}
