// Package migrations embeds the PostgreSQL schema for the profiles table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
