// Package migrations embeds the registry schema for golang-migrate.
package migrations

import "embed"

// FS holds the versioned up/down scripts.
//
//go:embed *.sql
var FS embed.FS
