package refdata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/refdata/internal/db"
	"github.com/EmpoweredVote/refdata/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookups_County(t *testing.T) {
	l := New([]geo.County{
		{ID: 1, Name: "Alameda County", StateID: 6, Fips: "001"},
		{ID: 2, Name: "Los Angeles County", StateID: 6, Fips: "037"},
		{ID: 3, Name: "Fairfield County", StateID: 9, Fips: "001"},
	}, nil, nil)

	c, ok := l.County(6, "037")
	require.True(t, ok)
	assert.Equal(t, 2, c.ID)

	// same FIPS, different state
	c, ok = l.County(9, "001")
	require.True(t, ok)
	assert.Equal(t, "Fairfield County", c.Name)

	_, ok = l.County(6, "999")
	assert.False(t, ok)
	_, ok = l.County(72, "001")
	assert.False(t, ok)

	assert.True(t, l.HasState(6))
	assert.False(t, l.HasState(72))
	assert.Equal(t, 3, l.CountyCount())
}

func TestLookups_LabelsAreCopied(t *testing.T) {
	levels := map[string]int{"Elementary": 1}
	grades := map[string]int{"PK": 1, "KG": 2}
	l := New(nil, levels, grades)

	levels["High"] = 2
	delete(grades, "PK")

	_, ok := l.Level("High")
	assert.False(t, ok)
	id, ok := l.Grade("PK")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, 1, l.LevelCount())
	assert.Equal(t, 2, l.GradeCount())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "fred.db"), db.Options{})
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.CreateSchema(ctx))

	gdb := store.DB
	require.NoError(t, gdb.Create(&geo.Region{ID: 4, Name: "West"}).Error)
	require.NoError(t, gdb.Create(&geo.Division{ID: 9, Name: "Pacific", RegionID: 4}).Error)
	require.NoError(t, gdb.Create(&geo.State{ID: 6, Name: "California", RegionID: 4, DivisionID: 9}).Error)
	require.NoError(t, gdb.Create(&geo.County{Name: "Los Angeles County", StateID: 6, Fips: "037"}).Error)
	require.NoError(t, gdb.Create(&geo.SchoolLevel{ID: 3, Level: "High"}).Error)
	require.NoError(t, gdb.Create(&geo.SchoolGrade{ID: 14, Grade: "12"}).Error)

	l, err := Load(ctx, gdb)
	require.NoError(t, err)
	c, ok := l.County(6, "037")
	require.True(t, ok)
	assert.Equal(t, "Los Angeles County", c.Name)
	assert.NotZero(t, c.ID)

	id, ok := l.Level("High")
	require.True(t, ok)
	assert.Equal(t, 3, id)
	id, ok = l.Grade("12")
	require.True(t, ok)
	assert.Equal(t, 14, id)

	l, err = LoadCounties(ctx, gdb)
	require.NoError(t, err)
	assert.Equal(t, 1, l.CountyCount())
	assert.Zero(t, l.LevelCount())
}

func TestLoad_MissingTables(t *testing.T) {
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "fred.db"), db.Options{})
	require.NoError(t, err)
	defer store.Close()

	_, err = Load(ctx, store.DB)
	assert.ErrorContains(t, err, "read counties")
}
