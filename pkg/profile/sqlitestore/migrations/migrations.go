// Package migrations embeds the SQLite schema for the profiles table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
