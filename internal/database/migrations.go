package database

import "embed"

// migrationFiles holds the schema for every supported driver, one
// directory per golang-migrate driver name.
//
//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationFiles embed.FS
