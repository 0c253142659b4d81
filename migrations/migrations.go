// AngelaMos | 2026
// migrations.go

// Package migrations embeds the schema. The DDL is kept to the subset
// PostgreSQL and SQLite share: TEXT ids, BIGINT unix-millisecond
// timestamps, partial unique indexes.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
