package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EmpoweredVote/refdata/internal/db"
	"github.com/EmpoweredVote/refdata/internal/geo"
	"github.com/EmpoweredVote/refdata/internal/logging"
	"github.com/EmpoweredVote/refdata/internal/metrics"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newStore opens a fresh SQLite store with all tables created.
func newStore(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "fred.db"), db.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.CreateSchema(ctx))
	return store
}

func newImporter(store *db.Store, commit bool) *Importer {
	return &Importer{
		DB:       store.DB,
		Log:      logging.Discard(),
		Metrics:  metrics.New(),
		Commit:   commit,
		Policies: map[Step]Policy{},
	}
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

// seedCalifornia loads the geography and lookup rows the tract and school
// tests resolve against.
func seedCalifornia(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	require.NoError(t, gdb.Create(&geo.Region{ID: 4, Name: "West"}).Error)
	require.NoError(t, gdb.Create(&geo.Division{ID: 9, Name: "Pacific", RegionID: 4}).Error)
	require.NoError(t, gdb.Create(&geo.State{ID: 6, Name: "California", RegionID: 4, DivisionID: 9}).Error)
	require.NoError(t, gdb.Create(&geo.County{Name: "Alameda County", StateID: 6, Fips: "001"}).Error)
	require.NoError(t, gdb.Create(&geo.County{Name: "Los Angeles County", StateID: 6, Fips: "037"}).Error)
	require.NoError(t, gdb.Create(&geo.SchoolLevel{ID: 1, Level: "Elementary"}).Error)
	require.NoError(t, gdb.Create(&geo.SchoolLevel{ID: 2, Level: "High"}).Error)
	for i, g := range []string{"PK", "KG", "05", "12"} {
		require.NoError(t, gdb.Create(&geo.SchoolGrade{ID: i + 1, Grade: g}).Error)
	}
}

func countRows(t *testing.T, gdb *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Raw("SELECT count(*) FROM "+table).Scan(&n).Error)
	return n
}

// schoolLine builds a 41-column schools row: an elementary school in Los
// Angeles County serving PreK through 5th grade. Overrides replace fields
// by index.
func schoolLine(overrides map[int]string) string {
	f := make([]string, 41)
	f[0] = "1"
	f[1] = "CALIFORNIA"
	f[3] = "Lincoln Elementary"
	f[4] = "LOS ANGELES COUNTY"
	f[5] = `="06037"`
	f[6] = `="060000100001"`
	f[7] = `="06"`
	f[8] = "123 Main St"
	f[11] = "Los Angeles"
	f[12] = `="90012"`
	f[18] = "Elementary"
	f[19] = "PK"
	f[20] = "05"
	for i := 0; i < geo.GradeCount; i++ {
		f[firstGradeFlag+i] = "0"
	}
	for i := 0; i <= 6; i++ { // PreK, K, 1..5
		f[firstGradeFlag+i] = "1"
	}
	f[36] = "1-Regular School"
	f[37] = "0"
	f[38] = "1-Yes"
	f[39] = "34.0522"
	f[40] = "-118.2437"
	for i, v := range overrides {
		f[i] = v
	}
	return strings.Join(f, ",")
}
