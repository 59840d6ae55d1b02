// Package migrations holds the SQLite schema applied when a store opens.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
