package export

import (
	"slices"
	"strings"
)

// Dialect identifies a SQL dialect the exporter can target. Dialect names
// match the erd payload's database_type values.
type Dialect string

const (
	// DialectPostgres produces PostgreSQL DDL.
	DialectPostgres Dialect = "postgres"
)

// DialectInfo provides metadata and the type mapping for a dialect.
type DialectInfo struct {
	// Name is the dialect identifier.
	Name Dialect

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the dialect.
	Description string

	// Types maps abstract attribute types to this dialect's column types.
	Types map[string]string
}

// DialectRegistry contains metadata for all supported dialects.
var DialectRegistry = map[Dialect]DialectInfo{
	DialectPostgres: {
		Name:        DialectPostgres,
		Extension:   ".sql",
		Description: "PostgreSQL data definition language",
		Types: map[string]string{
			"UUID":     "UUID",
			"INTEGER":  "INTEGER",
			"STRING":   "VARCHAR(255)",
			"TEXT":     "TEXT",
			"BOOLEAN":  "BOOLEAN",
			"DATETIME": "TIMESTAMP WITH TIME ZONE",
			"DECIMAL":  "NUMERIC",
			"JSON":     "JSONB",
		},
	},
}

// GetDialectInfo returns metadata for a dialect.
func GetDialectInfo(dialect Dialect) (DialectInfo, bool) {
	info, ok := DialectRegistry[dialect]
	return info, ok
}

// DialectNames returns the supported dialect names, sorted.
func DialectNames() []string {
	names := make([]string, 0, len(DialectRegistry))
	for d := range DialectRegistry {
		names = append(names, string(d))
	}
	slices.Sort(names)
	return names
}

// ColumnType maps an abstract attribute type to this dialect's column type.
// Unmapped types pass through unchanged, so a dialect-specific type written
// directly into an erd attribute still renders.
func (d DialectInfo) ColumnType(abstract string) string {
	if mapped, ok := d.Types[strings.ToUpper(abstract)]; ok {
		return mapped
	}
	return abstract
}
