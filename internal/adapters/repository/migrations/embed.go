// Package migrations holds the SQLite schema for the event store.
package migrations

import "embed"

// FS contains the embedded goose migrations.
//
//go:embed *.sql
var FS embed.FS
