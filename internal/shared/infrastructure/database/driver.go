package database

import "strings"

// Driver identifies a database backend.
type Driver string

const (
	// DriverPostgres is the PostgreSQL backend.
	DriverPostgres Driver = "postgres"
	// DriverSQLite is the embedded SQLite backend.
	DriverSQLite Driver = "sqlite"
)

// String returns the driver name as it appears in configuration.
func (d Driver) String() string {
	return string(d)
}

// IsValid reports whether the driver names a supported backend.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// sqliteSuffixes mark a bare filesystem path as a SQLite database.
var sqliteSuffixes = []string{".db", ".sqlite", ".sqlite3"}

// DetectDriver infers the backend from a connection string. An empty URL
// selects SQLite so local mode needs no configuration; anything that does
// not look like a SQLite file is treated as a PostgreSQL DSN.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite
	}

	for _, suffix := range sqliteSuffixes {
		if strings.HasSuffix(url, suffix) {
			return DriverSQLite
		}
	}

	return DriverPostgres
}
