// Package migrations embeds the SQL schema so binaries can migrate without the source tree.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file
//
//go:embed *.sql
var FS embed.FS
