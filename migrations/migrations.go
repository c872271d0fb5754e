// Package migrations embeds the SQL schema for every supported driver.
// Each driver has its own directory of golang-migrate files.
package migrations

import "embed"

//go:embed sqlite3/*.sql postgres/*.sql
var FS embed.FS
