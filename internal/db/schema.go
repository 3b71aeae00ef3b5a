package db

import (
	"context"
	"fmt"
)

// Tables lists the target tables in dependency order.
var Tables = []string{
	"Regions", "Divisions", "States", "Counties", "CensusTracts",
	"SchoolLevels", "SchoolGrades", "Schools",
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS Regions (
		Id INTEGER PRIMARY KEY,
		Name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Divisions (
		Id INTEGER PRIMARY KEY,
		Name TEXT NOT NULL,
		RegionId INTEGER NOT NULL REFERENCES Regions(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS States (
		Id INTEGER PRIMARY KEY,
		Name TEXT NOT NULL,
		RegionId INTEGER NOT NULL REFERENCES Regions(Id),
		DivisionId INTEGER NOT NULL REFERENCES Divisions(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS Counties (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		Name TEXT NOT NULL,
		StateId INTEGER NOT NULL REFERENCES States(Id),
		Fips TEXT NOT NULL,
		UNIQUE (StateId, Fips)
	)`,
	`CREATE TABLE IF NOT EXISTS CensusTracts (
		Tract TEXT NOT NULL,
		StateId INTEGER NOT NULL REFERENCES States(Id),
		CountyId INTEGER NOT NULL REFERENCES Counties(Id),
		PumaCode TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS SchoolLevels (
		Id INTEGER PRIMARY KEY,
		Level TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS SchoolGrades (
		Id INTEGER PRIMARY KEY,
		Grade TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Schools (` + schoolColumns("INTEGER", "REAL") + `)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS Regions (
		Id INTEGER PRIMARY KEY,
		Name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Divisions (
		Id INTEGER PRIMARY KEY,
		Name TEXT NOT NULL,
		RegionId INTEGER NOT NULL REFERENCES Regions(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS States (
		Id INTEGER PRIMARY KEY,
		Name TEXT NOT NULL,
		RegionId INTEGER NOT NULL REFERENCES Regions(Id),
		DivisionId INTEGER NOT NULL REFERENCES Divisions(Id)
	)`,
	`CREATE TABLE IF NOT EXISTS Counties (
		Id SERIAL PRIMARY KEY,
		Name TEXT NOT NULL,
		StateId INTEGER NOT NULL REFERENCES States(Id),
		Fips TEXT NOT NULL,
		UNIQUE (StateId, Fips)
	)`,
	`CREATE TABLE IF NOT EXISTS CensusTracts (
		Tract TEXT NOT NULL,
		StateId INTEGER NOT NULL REFERENCES States(Id),
		CountyId INTEGER NOT NULL REFERENCES Counties(Id),
		PumaCode TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS SchoolLevels (
		Id INTEGER PRIMARY KEY,
		Level TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS SchoolGrades (
		Id INTEGER PRIMARY KEY,
		Grade TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS Schools (` + schoolColumns("BOOLEAN", "DOUBLE PRECISION") + `)`,
}

func schoolColumns(boolType, floatType string) string {
	return `
		Name TEXT NOT NULL,
		StateId INTEGER NOT NULL REFERENCES States(Id),
		CountyId INTEGER NOT NULL REFERENCES Counties(Id),
		Address TEXT,
		City TEXT,
		Zip TEXT,
		NcesId TEXT,
		Level INTEGER REFERENCES SchoolLevels(Id),
		LowestGrade INTEGER REFERENCES SchoolGrades(Id),
		HighestGrade INTEGER REFERENCES SchoolGrades(Id),
		HasPreK ` + boolType + `,
		HasKindergarten ` + boolType + `,
		Has1st ` + boolType + `,
		Has2nd ` + boolType + `,
		Has3rd ` + boolType + `,
		Has4th ` + boolType + `,
		Has5th ` + boolType + `,
		Has6th ` + boolType + `,
		Has7th ` + boolType + `,
		Has8th ` + boolType + `,
		Has9th ` + boolType + `,
		Has10th ` + boolType + `,
		Has11th ` + boolType + `,
		Has12th ` + boolType + `,
		Has13th ` + boolType + `,
		SchoolType TEXT,
		IsCharter ` + boolType + `,
		IsMagnet ` + boolType + `,
		Latitude ` + floatType + `,
		Longitude ` + floatType + `
	`
}

// CreateSchema creates any missing target tables. Safe to call multiple
// times.
func (s *Store) CreateSchema(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == DialectPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if err := s.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string
	Rows  int64
}

// Counts returns row counts for every target table, in Tables order.
func (s *Store) Counts(ctx context.Context) ([]TableCount, error) {
	out := make([]TableCount, 0, len(Tables))
	for _, t := range Tables {
		var n int64
		if err := s.DB.WithContext(ctx).Raw(`SELECT count(*) FROM ` + t).Scan(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out = append(out, TableCount{Table: t, Rows: n})
	}
	return out, nil
}
