package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EmpoweredVote/refdata/internal/config"
	"github.com/EmpoweredVote/refdata/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"REFDATA_DB", "REFDATA_DATA_DIR", "REFDATA_COMMIT", "REFDATA_ON_MISSING",
		"REFDATA_TRACTS_ON_MISSING", "REFDATA_SCHOOLS_ON_MISSING", "REFDATA_METRICS_FILE"} {
		t.Setenv(key, "")
	}
	var out, errOut bytes.Buffer
	root := NewRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// fixture writes one small file per dataset under the default names and
// returns the data dir and a database path next to it.
func fixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := config.Default().Files
	write := func(name string, lines ...string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	}
	write(files.StateGeocodes,
		"## HEADERS ##",
		"Region,Division,State (FIPS),Name",
		"4\t0\t0\tWest Region",
		"4\t9\t0\tPacific Division",
		"4\t9\t6\tCalifornia",
	)
	write(files.AllGeocodes,
		"040\t6\t000\t00000\t00000\t00000\tCalifornia",
		"050\t6\t037\t00000\t00000\t00000\tLos Angeles County",
		"050\t6\t001\t00000\t00000\t00000\tAlameda County",
	)
	write(files.TractPuma,
		"06,037,101110,03701",
		"06,001,400100,00101",
		"06,999,000100,00000",
	)
	write(files.Schools,
		schoolRow("Lincoln Elementary", `="06037"`, "Elementary", "PK", "05"),
		schoolRow("Oakland High", `="06001"`, "High", "09", "12"),
	)
	return dir, filepath.Join(dir, "fred.db")
}

func schoolRow(name, fips, level, low, high string) string {
	f := make([]string, 41)
	f[1], f[3], f[5], f[6], f[7] = "CALIFORNIA", name, fips, `="060000100001"`, `="06"`
	f[18], f[19], f[20] = level, low, high
	for i := 21; i <= 35; i++ {
		f[i] = "0"
	}
	f[36], f[37], f[38], f[39], f[40] = "1-Regular School", "0", "0", "34.05", "-118.24"
	return strings.Join(f, ",")
}

func seedLookups(t *testing.T, dsn string) {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, dsn, db.Options{})
	require.NoError(t, err)
	defer store.Close()
	for i, l := range []string{"Elementary", "High"} {
		require.NoError(t, store.DB.Exec(`INSERT INTO SchoolLevels (Id, Level) VALUES (?, ?)`, i+1, l).Error)
	}
	for i, g := range []string{"PK", "KG", "05", "09", "12"} {
		require.NoError(t, store.DB.Exec(`INSERT INTO SchoolGrades (Id, Grade) VALUES (?, ?)`, i+1, g).Error)
	}
}

func tableRows(t *testing.T, dsn, table string) int64 {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, dsn, db.Options{})
	require.NoError(t, err)
	defer store.Close()
	var n int64
	require.NoError(t, store.DB.Raw("SELECT count(*) FROM "+table).Scan(&n).Error)
	return n
}

func TestStates_DryRun(t *testing.T) {
	dir, dsn := fixture(t)
	_, _, err := execute(t, "schema", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)

	out, logs, err := execute(t, "states", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "Plan preview:")
	assert.Contains(t, out, "INSERT INTO Regions (Id, Name) VALUES (@Id, @Name)")
	assert.Contains(t, out, "No changes made.")
	assert.Contains(t, logs, "run_id=")
	assert.Zero(t, tableRows(t, dsn, "Regions"))
}

func TestImportSteps_Commit(t *testing.T) {
	dir, dsn := fixture(t)
	_, _, err := execute(t, "schema", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)

	out, _, err := execute(t, "states", "--db", dsn, "--data-dir", dir, "--commit")
	require.NoError(t, err)
	assert.Contains(t, out, "committed")
	assert.Contains(t, out, "Before")
	assert.NotContains(t, out, "Plan preview:")

	_, _, err = execute(t, "counties", "--db", dsn, "--data-dir", dir, "--commit")
	require.NoError(t, err)
	assert.EqualValues(t, 2, tableRows(t, dsn, "Counties"))

	_, _, err = execute(t, "tracts", "--db", dsn, "--data-dir", dir, "--commit", "--tracts-on-missing", "abort")
	require.Error(t, err)
	assert.Equal(t, ExitImportError, ExitCode(err))
	assert.Zero(t, tableRows(t, dsn, "CensusTracts"))

	out, logs, err := execute(t, "tracts", "--db", dsn, "--data-dir", dir, "--commit")
	require.NoError(t, err)
	assert.Contains(t, logs, "unresolved")
	assert.Contains(t, out, "CensusTracts")
	assert.EqualValues(t, 2, tableRows(t, dsn, "CensusTracts"))
}

func TestAll_CommitWritesMetrics(t *testing.T) {
	dir, dsn := fixture(t)
	_, _, err := execute(t, "schema", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)
	seedLookups(t, dsn)

	metricsPath := filepath.Join(dir, "refdata.prom")
	out, _, err := execute(t, "all", "--db", dsn, "--data-dir", dir, "--commit", "--metrics-file", metricsPath)
	require.NoError(t, err)
	for _, step := range []string{"states", "counties", "tracts", "schools"} {
		assert.Contains(t, out, step)
	}
	assert.EqualValues(t, 2, tableRows(t, dsn, "Schools"))

	b, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `refdata_rows_total{dataset="schools",outcome="emitted"} 2`)
	assert.Contains(t, string(b), `refdata_rows_total{dataset="tracts",outcome="unresolved"} 1`)
	assert.Contains(t, string(b), "refdata_last_success_timestamp_seconds")
}

func TestFileFlagOverridesLocation(t *testing.T) {
	dir, dsn := fixture(t)
	other := filepath.Join(t.TempDir(), "regions.txt")
	require.NoError(t, os.WriteFile(other, []byte("1\t0\t0\tNortheast\n"), 0o600))

	out, _, err := execute(t, "states", "--db", dsn, "--data-dir", dir, "--file", other)
	require.NoError(t, err)
	assert.Contains(t, out, other)
	assert.Contains(t, out, "Northeast")
}

func TestSurvey(t *testing.T) {
	dir, dsn := fixture(t)
	out, _, err := execute(t, "survey", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Levels:")
	assert.Contains(t, out, `"Elementary"`)
	assert.Contains(t, out, `"09"`)
	assert.Contains(t, out, "School types:")
	assert.NoFileExists(t, dsn, "survey must not open the store")
}

func TestSeedLookupsThenSchools(t *testing.T) {
	dir, dsn := fixture(t)
	_, _, err := execute(t, "schema", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)

	out, _, err := execute(t, "seed-lookups", "--db", dsn, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PK 05 09 12")
	assert.Zero(t, tableRows(t, dsn, "SchoolGrades"))

	_, _, err = execute(t, "seed-lookups", "--db", dsn, "--data-dir", dir, "--commit")
	require.NoError(t, err)
	assert.EqualValues(t, 2, tableRows(t, dsn, "SchoolLevels"))
	assert.EqualValues(t, 4, tableRows(t, dsn, "SchoolGrades"))

	_, _, err = execute(t, "all", "--db", dsn, "--data-dir", dir, "--commit")
	require.NoError(t, err)
	assert.EqualValues(t, 2, tableRows(t, dsn, "Schools"))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "refdata-import "), out)
}

func TestExitCodes(t *testing.T) {
	dir, dsn := fixture(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"extra argument", []string{"states", "extra", "--db", dsn}, ExitUsageError},
		{"unknown flag", []string{"states", "--bogus"}, ExitUsageError},
		{"unknown command", []string{"zips"}, ExitUsageError},
		{"unknown policy", []string{"states", "--db", dsn, "--data-dir", dir, "--on-missing", "ignore"}, ExitConfigError},
		{"missing config file", []string{"states", "--config", filepath.Join(dir, "nope.yaml")}, ExitConfigError},
		{"missing input", []string{"states", "--db", dsn, "--data-dir", dir, "--file", "nope.txt"}, ExitImportError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, ExitCode(err), err.Error())
		})
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir, dsn := fixture(t)
	cfgPath := filepath.Join(dir, "refdata.yaml")
	yaml := fmt.Sprintf("database: %s\ndata_dir: %s\ncommit: true\n", dsn, dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

	_, _, err := execute(t, "schema", "--config", cfgPath)
	require.NoError(t, err)

	out, _, err := execute(t, "states", "--config", cfgPath, "--commit=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan preview:", "flag overrides file")
	assert.Zero(t, tableRows(t, dsn, "Regions"))

	out, _, err = execute(t, "states", "--config", cfgPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "Plan preview:")
	assert.EqualValues(t, 1, tableRows(t, dsn, "Regions"))
	assert.EqualValues(t, 1, tableRows(t, dsn, "States"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitImportError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, ExitCode(fmt.Errorf("load: %w", config.ErrMissingDatabase)))
	assert.Equal(t, ExitUsageError, ExitCode(usageError(errors.New("accepts 0 arg(s)"))))
}
